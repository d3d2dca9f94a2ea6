// Package worker provides goroutine pool management.
//
// Naked goroutines are forbidden in this codebase; all concurrency goes
// through a Pool with context propagation. The Synthesis pool caps in-flight
// image provider calls because the provider is the scarce resource, not
// local compute.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"tastebook.io/tastebook/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool names accepted by SubmitDetached.
const (
	PoolGeneral   = "general"
	PoolSynthesis = "synthesis"
)

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	name string
}

// Pools is the worker pool collection.
type Pools struct {
	// General runs detached background units such as per-draft enrichment.
	General *Pool

	// Synthesis runs individual image synthesis calls; its capacity is the
	// hard bound on concurrent in-flight provider requests.
	Synthesis *Pool

	// serviceCtx is the service lifecycle context for detached tasks
	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	GeneralPoolSize   int
	SynthesisPoolSize int
}

// DefaultPoolConfig returns default configuration. Synthesis stays at 4:
// one draft's page fan-out must never hold more than 4 provider calls open.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		GeneralPoolSize:   64,
		SynthesisPoolSize: 4,
	}
}

// NewPools creates the worker pool collection.
func NewPools(ctx context.Context, cfg PoolConfig) (*Pools, error) {
	serviceCtx, serviceCancel := context.WithCancel(ctx)

	panicHandler := func(p interface{}) {
		logger.Error("worker panic recovered",
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	generalAnts, err := ants.NewPool(cfg.GeneralPoolSize,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		serviceCancel()
		return nil, err
	}

	synthesisAnts, err := ants.NewPool(cfg.SynthesisPoolSize,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		// Synthesis calls poll a slow provider; keep idle workers longer.
		ants.WithExpiryDuration(30*time.Second),
	)
	if err != nil {
		generalAnts.Release()
		serviceCancel()
		return nil, err
	}

	return &Pools{
		General:       &Pool{pool: generalAnts, name: PoolGeneral},
		Synthesis:     &Pool{pool: synthesisAnts, name: PoolSynthesis},
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}, nil
}

// Submit submits a context-aware task. The task receives the caller's
// context and SHOULD check ctx.Done() at blocking points. If the context is
// already cancelled, Submit returns ctx.Err() without submitting. With a
// full pool the call blocks until a worker frees up, which is what bounds
// one draft's synthesis fan-out.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Once accepted, the task always runs even if the context is cancelled
	// while it waits for a worker: a task owns cleanup state (WaitGroup
	// counters, locks) that must be released, and its own ctx checks decide
	// whether to do real work.
	return p.pool.Submit(func() {
		task(ctx)
	})
}

// SubmitDetached submits a detached background task. Detached tasks use the
// service lifecycle context instead of a request context: enrichment must
// survive the originating request but still respect graceful shutdown.
func (p *Pools) SubmitDetached(poolName string, task Task) error {
	var pool *Pool
	switch poolName {
	case PoolSynthesis:
		pool = p.Synthesis
	default:
		pool = p.General
	}

	return pool.pool.Submit(func() {
		select {
		case <-p.serviceCtx.Done():
			logger.Debug("detached task skipped: service shutting down",
				zap.String("pool", poolName),
			)
			return
		default:
		}
		task(p.serviceCtx)
	})
}

// Shutdown gracefully shuts down all pools with a timeout.
// Cancels the service context first, then waits for running tasks.
func (p *Pools) Shutdown() {
	p.serviceCancel()

	const shutdownTimeout = 30 * time.Second
	if err := p.General.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("general pool shutdown timeout", zap.Error(err))
	}
	if err := p.Synthesis.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("synthesis pool shutdown timeout", zap.Error(err))
	}
}

// Metrics returns pool metrics for observability.
func (p *Pools) Metrics() map[string]interface{} {
	return map[string]interface{}{
		PoolGeneral: map[string]int{
			"running": p.General.pool.Running(),
			"free":    p.General.pool.Free(),
			"cap":     p.General.pool.Cap(),
		},
		PoolSynthesis: map[string]int{
			"running": p.Synthesis.pool.Running(),
			"free":    p.Synthesis.pool.Free(),
			"cap":     p.Synthesis.pool.Cap(),
		},
	}
}
