package indexer

import (
	"context"
	"sync/atomic"

	"github.com/goran-ethernal/GridIndexor/internal/fetcher"
	"github.com/goran-ethernal/GridIndexor/internal/logger"
	"github.com/goran-ethernal/GridIndexor/internal/metrics"
)

// DefaultBackfillBlocks is the historical window fetched on activation.
const DefaultBackfillBlocks = 10000

// RangeFetcher fetches and admits a block range. *fetcher.RangeFetcher implements it.
type RangeFetcher interface {
	FetchRange(ctx context.Context, from, to uint64) *fetcher.FetchResult
}

// BackfillCoordinator fetches a fixed historical window ending at the head
// observed on activation. It runs at most once and its completion is observable.
type BackfillCoordinator struct {
	window  uint64
	fetcher RangeFetcher
	log     *logger.Logger
	label   string

	triggered atomic.Bool
	done      chan struct{}
	result    atomic.Pointer[fetcher.FetchResult]
}

// NewBackfillCoordinator creates a coordinator for the given window size.
func NewBackfillCoordinator(window uint64, f RangeFetcher, label string, log *logger.Logger) *BackfillCoordinator {
	metrics.BackfillStateSet(label, metrics.BackfillPending)

	return &BackfillCoordinator{
		window:  window,
		fetcher: f,
		log:     log,
		label:   label,
		done:    make(chan struct{}),
	}
}

// StartBlock is max(0, head-window).
func (b *BackfillCoordinator) StartBlock(head uint64) uint64 {
	if head > b.window {
		return head - b.window
	}
	return 0
}

// Trigger starts the backfill of [StartBlock(head), head] in the background.
// Only the first call starts anything; it reports whether this call did.
func (b *BackfillCoordinator) Trigger(ctx context.Context, head uint64) bool {
	if !b.triggered.CompareAndSwap(false, true) {
		return false
	}

	from := b.StartBlock(head)
	b.log.Infof("starting backfill from block %d to %d", from, head)

	go b.run(ctx, from, head)

	return true
}

func (b *BackfillCoordinator) run(ctx context.Context, from, to uint64) {
	defer close(b.done)
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("backfill aborted by panic: %v", r)
		}
		metrics.BackfillStateSet(b.label, metrics.BackfillDone)
	}()

	metrics.BackfillStateSet(b.label, metrics.BackfillRunning)

	result := b.fetcher.FetchRange(ctx, from, to)
	b.result.Store(result)

	if !result.Complete() {
		b.log.Warnf("backfill finished with %d failed ranges; %d orders, %d settlements admitted",
			len(result.Failed), result.OrdersAdmitted, result.SettlementsAdmitted)
		return
	}

	b.log.Infof("backfill finished: %d orders, %d settlements admitted",
		result.OrdersAdmitted, result.SettlementsAdmitted)
}

// Triggered reports whether the backfill has been started.
func (b *BackfillCoordinator) Triggered() bool {
	return b.triggered.Load()
}

// Done is closed once the backfill has finished. It never closes if the
// backfill was never triggered.
func (b *BackfillCoordinator) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the backfill finishes or ctx is done.
func (b *BackfillCoordinator) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result returns the backfill outcome, or nil while it is pending or if it panicked.
func (b *BackfillCoordinator) Result() *fetcher.FetchResult {
	return b.result.Load()
}
