package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/coursealloc/internal/config"
	"github.com/mesh-intelligence/coursealloc/internal/paths"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml and prepare the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(opts.configDir)
			if err != nil {
				return sysErr(fmt.Errorf("resolve config dir: %w", err))
			}

			cfg := config.Default()
			if backend != "" {
				cfg.Backend = backend
			}
			cfg.DataDir = opts.dataDir
			if err := cfg.Validate(); err != nil {
				return err
			}
			wrote, err := config.WriteDefault(configDir, cfg)
			if err != nil {
				return sysErr(err)
			}

			// The written file may predate this run; use what is on disk.
			e, err := opts.setup()
			if err != nil {
				return err
			}
			if e.cfg.Backend == types.BackendSQLite {
				_, closeStore, err := e.openStore()
				if err != nil {
					return err
				}
				if err := closeStore(); err != nil {
					return sysErr(fmt.Errorf("finalize store: %w", err))
				}
			}

			out := cmd.OutOrStdout()
			if wrote {
				fmt.Fprintf(out, "Wrote %s\n", paths.ConfigFile(configDir))
			} else {
				fmt.Fprintf(out, "Kept existing %s\n", paths.ConfigFile(configDir))
			}
			fmt.Fprintf(out, "Backend %s, data directory %s\n", e.cfg.Backend, e.cfg.DataDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "storage backend for the new config: memory or sqlite")
	return cmd
}
