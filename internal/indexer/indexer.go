package indexer

import (
	"context"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/GridIndexor/internal/analytics"
	"github.com/goran-ethernal/GridIndexor/internal/common"
	"github.com/goran-ethernal/GridIndexor/internal/events"
	"github.com/goran-ethernal/GridIndexor/internal/fetcher"
	"github.com/goran-ethernal/GridIndexor/internal/logger"
	"github.com/goran-ethernal/GridIndexor/internal/metrics"
	"github.com/goran-ethernal/GridIndexor/internal/store"
	"github.com/goran-ethernal/GridIndexor/pkg/api"
	"github.com/goran-ethernal/GridIndexor/pkg/config"
	"github.com/goran-ethernal/GridIndexor/pkg/rpc"
)

// Indexer indexes the events of one grid contract: a one-shot backfill over
// recent history followed by live polling, both feeding a bounded store.
type Indexer struct {
	cfg     config.IndexerConfig
	address ethcommon.Address
	enabled bool
	log     *logger.Logger

	store    *store.EventStore
	fetcher  *fetcher.RangeFetcher
	backfill *BackfillCoordinator
	poll     *PollLoop

	mu      sync.Mutex
	started bool
	warned  bool
	runCtx  context.Context
}

// New wires an indexer for cfg. The configuration is expected to have defaults applied.
func New(cfg config.IndexerConfig, client rpc.EthClient, logCfg *config.LoggingConfig) *Indexer {
	address := cfg.Address()
	label := address.Hex()

	st := store.NewEventStore(store.Options{
		MaxEvents:   cfg.MaxEvents,
		BlockWindow: cfg.BlockWindow,
		Label:       label,
	})

	f := fetcher.New(fetcher.Config{
		Address:   address,
		ChunkSize: cfg.ChunkSize,
	}, client, st, logger.NewComponentLoggerFromConfig(common.ComponentRangeFetcher, logCfg))

	idx := &Indexer{
		cfg:     cfg,
		address: address,
		enabled: cfg.Enabled(),
		log:     logger.NewComponentLoggerFromConfig(common.ComponentIndexer, logCfg),
		store:   st,
		fetcher: f,
		runCtx:  context.Background(),
	}

	idx.backfill = NewBackfillCoordinator(cfg.BackfillBlocks, f, label,
		logger.NewComponentLoggerFromConfig(common.ComponentBackfill, logCfg))

	idx.poll = NewPollLoop(PollLoopConfig{
		Interval:        cfg.PollInterval.Duration,
		WatermarkPolicy: cfg.WatermarkPolicy,
		Label:           label,
		OnBootstrap:     idx.onBootstrap,
	}, client, f, st, logger.NewComponentLoggerFromConfig(common.ComponentPollLoop, logCfg))

	return idx
}

// Start activates indexing. It is idempotent, and a no-op when no contract is configured.
func (i *Indexer) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.enabled {
		if !i.warned {
			i.warned = true
			i.log.Warn("no grid contract address configured, indexing is disabled")
		}
		return
	}

	if i.started {
		return
	}
	i.started = true
	i.runCtx = ctx

	i.log.Infof("indexing grid contract %s", i.address.Hex())
	metrics.ComponentHealthSet(common.ComponentIndexer, true)

	i.poll.Start(ctx)
}

// Stop halts live polling. A tick or backfill already in flight runs to completion.
func (i *Indexer) Stop() {
	i.poll.Stop()
	metrics.ComponentHealthSet(common.ComponentIndexer, false)
}

// Run starts the indexer and blocks until ctx is done, then stops it and waits
// for the poll loop to exit.
func (i *Indexer) Run(ctx context.Context) error {
	i.Start(ctx)

	<-ctx.Done()

	i.Stop()
	<-i.poll.Done()

	return nil
}

func (i *Indexer) onBootstrap(head uint64) {
	i.mu.Lock()
	ctx := i.runCtx
	i.mu.Unlock()

	i.backfill.Trigger(ctx, head)
}

// Store returns the event store.
func (i *Indexer) Store() *store.EventStore {
	return i.store
}

// Backfill returns the backfill coordinator.
func (i *Indexer) Backfill() *BackfillCoordinator {
	return i.backfill
}

// PollLoop returns the live poll loop.
func (i *Indexer) PollLoop() *PollLoop {
	return i.poll
}

// RecentOrders returns up to limit orders, newest first.
func (i *Indexer) RecentOrders(limit int) []events.OrderRecord {
	return i.store.RecentOrders(limit)
}

// RecentSettlements returns up to limit settlements, newest first.
func (i *Indexer) RecentSettlements(limit int) []events.SettlementRecord {
	return i.store.RecentSettlements(limit)
}

// Metrics computes the analytics snapshot.
func (i *Indexer) Metrics() analytics.MetricsSnapshot {
	return analytics.Snapshot(i.store, analytics.Options{
		SeriesWindow: i.cfg.BlockWindow,
		ActiveWindow: i.cfg.ActivePartitionWindow,
	})
}

// MaxEvents is the retention cap of the store.
func (i *Indexer) MaxEvents() int {
	return i.cfg.MaxEvents
}

// Status reports the lifecycle state of the indexer.
func (i *Indexer) Status() api.Status {
	status := api.Status{
		Enabled:            i.enabled,
		State:              i.poll.State().String(),
		BackfillTriggered:  i.backfill.Triggered(),
		LastProcessedBlock: i.store.LastProcessedBlock(),
		Orders:             i.store.OrderCount(),
		Settlements:        i.store.SettlementCount(),
	}
	if i.enabled {
		status.Contract = i.address.Hex()
	}

	select {
	case <-i.backfill.Done():
		status.BackfillDone = true
	default:
	}

	return status
}
