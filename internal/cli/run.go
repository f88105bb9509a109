package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/coursealloc/internal/random"
	"github.com/mesh-intelligence/coursealloc/internal/session"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

type runOptions struct {
	agents     int
	items      int
	algorithms []string
	shuffle    bool
	seed       uint64
	sessionID  string
	csv        map[string]*string
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	ro := &runOptions{csv: map[string]*string{}}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run allocation algorithms headlessly",
		Long: "Build an instance from CSV files, random tables or a stored session and\n" +
			"run the selected algorithms on it. Missing tables are generated.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, ro)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&ro.agents, "agents", "n", types.DefaultDimensions.Agents, "number of agents")
	f.IntVarP(&ro.items, "items", "m", types.DefaultDimensions.Items, "number of items")
	f.StringSliceVarP(&ro.algorithms, "algorithm", "a", nil, "algorithm id or title, repeatable (default: all)")
	f.BoolVar(&ro.shuffle, "shuffle", false, "regenerate all tables before uploading files")
	f.Uint64Var(&ro.seed, "seed", 0, "random seed (default: random_seed from config)")
	f.StringVar(&ro.sessionID, "session", "", "run a stored session instead of building one")
	for _, name := range types.StandardTableNames {
		ro.csv[name] = f.String(strings.ReplaceAll(name, "_", "-"), "", "CSV file for the "+name+" table")
	}
	return cmd
}

func runRun(cmd *cobra.Command, opts *rootOptions, ro *runOptions) error {
	algs, err := parseAlgorithms(ro.algorithms)
	if err != nil {
		return err
	}
	e, err := opts.setup()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	var (
		dims     types.Dimensions
		outcomes []types.Outcome
		elapsed  time.Duration
	)
	if ro.sessionID != "" {
		store, closeStore, err := e.openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		mgr := e.newManager(store)
		snap, err := mgr.Get(ro.sessionID)
		if err != nil {
			return err
		}
		rec, err := mgr.Run(ro.sessionID, algs)
		if err != nil {
			return err
		}
		dims, outcomes, elapsed = snap.Dimensions, rec.Outcomes, rec.Elapsed
	} else {
		inst, err := buildInstance(e, ro)
		if err != nil {
			return err
		}
		dims = types.Dimensions{Agents: len(inst.Agents), Items: len(inst.Items)}
		outcomes, elapsed = e.newRunner().Run(inst, algs)
	}

	out := cmd.OutOrStdout()
	if opts.jsonMode {
		return writeJSON(out, struct {
			Dimensions types.Dimensions `json:"dimensions"`
			Outcomes   []types.Outcome  `json:"outcomes"`
			ElapsedMS  float64          `json:"elapsed_ms"`
		}{dims, outcomes, float64(elapsed) / float64(time.Millisecond)})
	}
	printOutcomes(out, outcomes)
	fmt.Fprintf(out, "Finished %d algorithm(s) on %d agents and %d items in %s\n",
		len(outcomes), dims.Agents, dims.Items, elapsed.Round(time.Microsecond))
	return nil
}

func parseAlgorithms(names []string) ([]types.Algorithm, error) {
	if len(names) == 0 {
		return append([]types.Algorithm(nil), types.Algorithms...), nil
	}
	algs := make([]types.Algorithm, 0, len(names))
	for _, name := range names {
		alg, err := types.ParseAlgorithm(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		algs = append(algs, alg)
	}
	return algs, nil
}

// buildInstance creates a throwaway session, applies the CSV files in table
// order and returns its instance.
func buildInstance(e *env, ro *runOptions) (types.Instance, error) {
	seed := ro.seed
	if seed == 0 {
		seed = e.cfg.RandomSeed
	}
	sess, err := session.New("cli", types.Dimensions{Agents: ro.agents, Items: ro.items}, random.New(seed))
	if err != nil {
		return types.Instance{}, err
	}
	if ro.shuffle {
		if err := sess.Shuffle(); err != nil {
			return types.Instance{}, err
		}
	}
	for _, name := range types.StandardTableNames {
		path := *ro.csv[name]
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return types.Instance{}, sysErr(fmt.Errorf("reading %s: %w", path, err))
		}
		if _, err := sess.Upload(name, data); err != nil {
			return types.Instance{}, fmt.Errorf("%s: %w", path, err)
		}
		e.log.Debug("table uploaded", zap.String("table", name), zap.String("file", path))
	}
	return sess.Instance()
}

// printOutcomes renders each outcome as an aligned text table.
func printOutcomes(w io.Writer, outcomes []types.Outcome) {
	for _, out := range outcomes {
		fmt.Fprintf(w, "== %s ==\n", out.Algorithm.Title())
		if out.Err != nil || out.Error != "" {
			fmt.Fprintf(w, "error: %s\n\n", out.Error)
			continue
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "AGENT\tITEMS")
		for _, agent := range sortedAgents(out.Allocation) {
			items := out.Allocation[agent]
			list := strings.Join(items, ", ")
			if list == "" {
				list = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\n", agent, list)
		}
		tw.Flush()
		if out.Stats != nil {
			fmt.Fprintf(w, "utilitarian %.0f  egalitarian %.0f  max envy %.0f  mean envy %.2f\n",
				out.Stats.UtilitarianValue, out.Stats.EgalitarianValue, out.Stats.MaxEnvy, out.Stats.MeanEnvy)
		}
		for _, agent := range sortedAgents(out.Allocation) {
			if text, ok := out.Explanations[agent]; ok {
				fmt.Fprintf(w, "%s: %s\n", agent, text)
			}
		}
		fmt.Fprintln(w)
	}
}

// sortedAgents orders agents shortest label first so "Agent 10" follows
// "Agent 9".
func sortedAgents(alloc types.Allocation) []string {
	agents := make([]string, 0, len(alloc))
	for a := range alloc {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool {
		if len(agents[i]) != len(agents[j]) {
			return len(agents[i]) < len(agents[j])
		}
		return agents[i] < agents[j]
	})
	return agents
}
