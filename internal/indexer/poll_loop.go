package indexer

import (
	"context"
	"sync"
	"time"

	"github.com/goran-ethernal/GridIndexor/internal/logger"
	"github.com/goran-ethernal/GridIndexor/internal/metrics"
	"github.com/goran-ethernal/GridIndexor/pkg/config"
	"github.com/goran-ethernal/GridIndexor/pkg/rpc"
)

// DefaultPollInterval is the live polling cadence.
const DefaultPollInterval = 2 * time.Second

// State of the poll loop.
type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// TickOutcome describes what a single tick did.
type TickOutcome string

const (
	TickHeadError   TickOutcome = "head_error"
	TickBootstrap   TickOutcome = "bootstrap"
	TickNoNewBlocks TickOutcome = "no_new_blocks"
	TickFetched     TickOutcome = "fetched"
	TickPartial     TickOutcome = "partial"
)

// Watermark is the cursor the poll loop reads and advances. EventStore implements it.
type Watermark interface {
	LastProcessedBlock() uint64
	AdvanceWatermark(block uint64)
}

// PollLoopConfig configures a PollLoop.
type PollLoopConfig struct {
	Interval        time.Duration
	WatermarkPolicy string
	Label           string

	// OnBootstrap is called once with the head seen by the first successful tick.
	OnBootstrap func(head uint64)
}

// PollLoop periodically fetches the blocks between the watermark and the chain head.
type PollLoop struct {
	cfg       PollLoopConfig
	rpc       rpc.EthClient
	fetcher   RangeFetcher
	watermark Watermark
	log       *logger.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	// tickMu serializes ticks and guards bootstrapped
	tickMu       sync.Mutex
	bootstrapped bool
}

// NewPollLoop creates an idle poll loop.
func NewPollLoop(
	cfg PollLoopConfig,
	client rpc.EthClient,
	f RangeFetcher,
	watermark Watermark,
	log *logger.Logger,
) *PollLoop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.WatermarkPolicy == "" {
		cfg.WatermarkPolicy = config.WatermarkAdvance
	}

	done := make(chan struct{})
	close(done)

	return &PollLoop{
		cfg:       cfg,
		rpc:       client,
		fetcher:   f,
		watermark: watermark,
		log:       log,
		done:      done,
	}
}

// State returns the current state.
func (p *PollLoop) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Start moves the loop from Idle to Running and ticks immediately, then every
// Interval. It reports false when the loop was already running.
func (p *PollLoop) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateRunning {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.state = StateRunning

	go p.run(loopCtx, p.done)

	p.log.Infof("poll loop started with interval %s and %s watermark policy",
		p.cfg.Interval, p.cfg.WatermarkPolicy)

	return true
}

// Stop halts scheduling. A tick already in flight runs to completion.
func (p *PollLoop) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateRunning {
		return
	}

	p.cancel()
	p.state = StateIdle
	p.log.Info("poll loop stopped")
}

// Done is closed when the loop goroutine has exited, including any in-flight tick.
func (p *PollLoop) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.done
}

func (p *PollLoop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	// ticks are not cancelled by Stop
	tickCtx := context.WithoutCancel(ctx)

	p.TickOnce(tickCtx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			p.TickOnce(tickCtx)
		}
	}
}

// TickOnce runs a single poll iteration.
func (p *PollLoop) TickOnce(ctx context.Context) TickOutcome {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	start := time.Now()
	outcome := p.tick(ctx)

	metrics.PollTickTimeLog(p.cfg.Label, time.Since(start))
	metrics.PollTicksInc(p.cfg.Label, string(outcome))

	return outcome
}

func (p *PollLoop) tick(ctx context.Context) TickOutcome {
	head, err := p.rpc.BlockNumber(ctx)
	if err != nil {
		p.log.Warnf("failed to read chain head, skipping tick: %v", err)
		return TickHeadError
	}
	metrics.ChainHeadSet(p.cfg.Label, head)

	if !p.bootstrapped {
		p.bootstrapped = true
		if head > p.watermark.LastProcessedBlock() {
			p.watermark.AdvanceWatermark(head)
		}
		p.log.Infof("bootstrapped at block %d", head)
		if p.cfg.OnBootstrap != nil {
			p.cfg.OnBootstrap(head)
		}
		return TickBootstrap
	}

	last := p.watermark.LastProcessedBlock()
	if head <= last {
		return TickNoNewBlocks
	}

	result := p.fetcher.FetchRange(ctx, last+1, head)

	next := head
	if p.cfg.WatermarkPolicy == config.WatermarkContiguous {
		to, ok := result.ContiguousTo()
		if !ok {
			to = last
		}
		next = to
	}
	if next > last {
		p.watermark.AdvanceWatermark(next)
	}

	if !result.Complete() {
		p.log.Warnf("poll range %d-%d had %d failed ranges, watermark at %d",
			last+1, head, len(result.Failed), max(next, last))
		return TickPartial
	}

	p.log.Debugf("polled blocks %d-%d", last+1, head)
	return TickFetched
}
