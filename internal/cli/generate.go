package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/coursealloc/internal/random"
	"github.com/mesh-intelligence/coursealloc/internal/session"
	"github.com/mesh-intelligence/coursealloc/internal/tableio"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		agents, items int
		outDir        string
		seed          uint64
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the three CSV tables of a random instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.New("generate", types.Dimensions{Agents: agents, Items: items}, random.New(seed))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return sysErr(fmt.Errorf("create output directory: %w", err))
			}

			written := make(map[string]string, len(types.StandardTableNames))
			for _, name := range types.StandardTableNames {
				t, err := sess.Table(name)
				if err != nil {
					return err
				}
				data, err := tableio.Encode(t)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, name+".csv")
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return sysErr(fmt.Errorf("write %s: %w", path, err))
				}
				written[name] = path
			}

			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), written)
			}
			for _, name := range types.StandardTableNames {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, written[name])
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&agents, "agents", "n", types.DefaultDimensions.Agents, "number of agents")
	f.IntVarP(&items, "items", "m", types.DefaultDimensions.Items, "number of items")
	f.StringVarP(&outDir, "out", "o", ".", "output directory")
	f.Uint64Var(&seed, "seed", 0, "random seed (0: random)")
	return cmd
}
