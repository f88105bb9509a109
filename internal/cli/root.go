// Package cli implements the coursealloc command-line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/coursealloc/internal/config"
	"github.com/mesh-intelligence/coursealloc/internal/fairdiv"
	"github.com/mesh-intelligence/coursealloc/internal/logging"
	"github.com/mesh-intelligence/coursealloc/internal/paths"
	"github.com/mesh-intelligence/coursealloc/internal/runner"
	"github.com/mesh-intelligence/coursealloc/internal/session"
	"github.com/mesh-intelligence/coursealloc/pkg/sqlite"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootOptions holds the global flags shared by all subcommands.
type rootOptions struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool
}

// NewRootCmd creates the "coursealloc" command with its global flags and
// subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "coursealloc",
		Short: "Configure and run fair course allocations",
		Long: "coursealloc keeps the agent capacities, item capacities and preferences of a\n" +
			"course allocation problem consistent while they are edited, and runs fair\n" +
			"division algorithms on the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// sysError marks failures of the environment (files, storage, network)
// rather than of user input.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func sysErr(err error) error {
	if err == nil {
		return nil
	}
	return &sysError{err: err}
}

func exitCode(err error) int {
	var se *sysError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &se):
		return exitSysError
	default:
		return exitUserError
	}
}

// env is the resolved runtime environment of one command.
type env struct {
	cfg       config.Config
	configDir string
	log       *zap.Logger
}

// setup resolves directories, loads and validates the configuration and
// builds the logger.
func (o *rootOptions) setup() (*env, error) {
	configDir, err := paths.ResolveConfigDir(o.configDir)
	if err != nil {
		return nil, sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	cfg.DataDir, err = paths.ResolveDataDir(o.dataDir, cfg.DataDir)
	if err != nil {
		return nil, sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, _, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, configDir: configDir, log: log}, nil
}

// openStore opens the configured backend. The returned close function
// flushes and releases it.
func (e *env) openStore() (types.Store, func() error, error) {
	switch e.cfg.Backend {
	case types.BackendSQLite:
		b := sqlite.NewBackend()
		if err := b.Attach(e.cfg.Store()); err != nil {
			return nil, nil, sysErr(fmt.Errorf("attach store: %w", err))
		}
		e.log.Info("store attached", zap.String("backend", e.cfg.Backend), zap.String("data_dir", e.cfg.DataDir))
		return b, b.Detach, nil
	default:
		return session.NewMemoryStore(), func() error { return nil }, nil
	}
}

// newRunner returns the runner configured for this environment.
func (e *env) newRunner() *runner.Runner {
	return runner.New(fairdiv.New(), runner.WithPacing(e.cfg.Pacing), runner.WithLogger(e.log))
}

func (e *env) newManager(store types.Store) *session.Manager {
	return session.NewManager(store, e.newRunner(),
		session.WithSeed(e.cfg.RandomSeed),
		session.WithLogger(e.log))
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
