// Package runner invokes the allocation collaborator once per selected
// algorithm and collects the outcomes.
package runner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/coursealloc/internal/fairdiv"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// Pacing bounds. The delay before a run grows with the problem size so the
// progress indicator is visible. A delay above DelayLimit is replaced by
// MaxDelay, so sizes just under the limit wait longer than MaxDelay.
const (
	DelayPerCell = 10 * time.Millisecond
	DelayLimit   = 3 * time.Second
	MaxDelay     = 2 * time.Second
)

// Runner runs algorithms sequentially on one instance.
type Runner struct {
	alloc  types.Allocator
	pacing bool
	sleep  func(time.Duration)
	now    func() time.Time
	log    *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithPacing enables or disables the delay before each run.
func WithPacing(on bool) Option {
	return func(r *Runner) { r.pacing = on }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithSleep replaces time.Sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// New returns a Runner backed by alloc. Pacing is on by default.
func New(alloc types.Allocator, opts ...Option) *Runner {
	r := &Runner{
		alloc:  alloc,
		pacing: true,
		sleep:  time.Sleep,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Delay returns the pacing delay for an n by m instance.
func Delay(n, m int) time.Duration {
	d := time.Duration(n*m) * DelayPerCell
	if d > DelayLimit {
		return MaxDelay
	}
	return d
}

// Run executes algs on inst in order. Every allocation is checked against
// the capacities of inst before it is scored. A failing algorithm is recorded on its
// outcome and does not stop the others. The returned duration covers the
// algorithm calls and excludes the pacing delay.
func (r *Runner) Run(inst types.Instance, algs []types.Algorithm) ([]types.Outcome, time.Duration) {
	if r.pacing {
		r.sleep(Delay(len(inst.Agents), len(inst.Items)))
	}

	start := r.now()
	outcomes := make([]types.Outcome, 0, len(algs))
	for _, alg := range algs {
		out := r.runOne(inst, alg)
		if out.Err != nil {
			r.log.Warn("algorithm failed", zap.String("algorithm", string(alg)), zap.Error(out.Err))
		}
		outcomes = append(outcomes, out)
	}
	elapsed := r.now().Sub(start)
	r.log.Info("run finished",
		zap.Int("agents", len(inst.Agents)),
		zap.Int("items", len(inst.Items)),
		zap.Int("algorithms", len(algs)),
		zap.Duration("elapsed", elapsed))
	return outcomes, elapsed
}

func (r *Runner) runOne(inst types.Instance, alg types.Algorithm) (out types.Outcome) {
	out.Algorithm = alg
	defer func() {
		if p := recover(); p != nil {
			out = failed(alg, fmt.Errorf("%w: %s panicked: %v", types.ErrAlgorithm, alg, p))
		}
	}()

	alloc, explanations, err := r.alloc.Divide(inst, alg)
	if err != nil {
		return failed(alg, wrapAlgorithm(alg, err))
	}
	if err := fairdiv.Check(inst, alloc); err != nil {
		return failed(alg, wrapAlgorithm(alg, err))
	}
	stats, err := r.alloc.Metrics(inst, alloc)
	if err != nil {
		return failed(alg, wrapAlgorithm(alg, err))
	}
	out.Allocation = alloc
	out.Explanations = explanations
	out.Stats = &stats
	return out
}

func failed(alg types.Algorithm, err error) types.Outcome {
	return types.Outcome{Algorithm: alg, Err: err, Error: err.Error()}
}

// wrapAlgorithm makes sure every collaborator failure matches ErrAlgorithm.
func wrapAlgorithm(alg types.Algorithm, err error) error {
	if errors.Is(err, types.ErrAlgorithm) {
		return fmt.Errorf("running %s: %w", alg, err)
	}
	return fmt.Errorf("running %s: %w: %w", alg, types.ErrAlgorithm, err)
}
