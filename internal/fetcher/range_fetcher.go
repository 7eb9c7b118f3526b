package fetcher

import (
	"context"
	"iter"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/GridIndexor/internal/events"
	"github.com/goran-ethernal/GridIndexor/internal/logger"
	"github.com/goran-ethernal/GridIndexor/internal/metrics"
	irpc "github.com/goran-ethernal/GridIndexor/internal/rpc"
	"github.com/goran-ethernal/GridIndexor/pkg/rpc"
)

// DefaultChunkSize stays within common provider limits on eth_getLogs ranges.
const DefaultChunkSize = 2000

// Sink receives decoded records. EventStore implements it.
type Sink interface {
	AdmitOrder(order events.OrderRecord) bool
	AdmitSettlement(settlement events.SettlementRecord) bool
}

// Config contains configuration for the RangeFetcher.
type Config struct {
	// Address is the grid contract whose logs are fetched
	Address ethcommon.Address

	// ChunkSize is the maximum number of blocks per eth_getLogs call
	ChunkSize uint64
}

// RangeFetcher fetches grid events over block ranges in bounded chunks and
// admits them into a Sink. A failing chunk is skipped, never retried.
type RangeFetcher struct {
	cfg   Config
	rpc   rpc.EthClient
	sink  Sink
	log   *logger.Logger
	label string
	now   func() time.Time
}

// New creates a new RangeFetcher.
func New(cfg Config, client rpc.EthClient, sink Sink, log *logger.Logger) *RangeFetcher {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	return &RangeFetcher{
		cfg:   cfg,
		rpc:   client,
		sink:  sink,
		log:   log,
		label: cfg.Address.Hex(),
		now:   time.Now,
	}
}

// Chunks splits [from, to] into consecutive inclusive ranges of at most
// ChunkSize blocks. It yields nothing when from > to.
func (f *RangeFetcher) Chunks(from, to uint64) iter.Seq[CoverageRange] {
	size := f.cfg.ChunkSize

	return func(yield func(CoverageRange) bool) {
		if from > to {
			return
		}

		for start := from; ; {
			end := to
			if to-start >= size {
				end = start + size - 1
			}

			if !yield(CoverageRange{FromBlock: start, ToBlock: end}) {
				return
			}

			if end == to {
				return
			}
			start = end + 1
		}
	}
}

// Events lazily fetches and decodes [from, to] chunk by chunk. Each chunk
// costs one eth_getLogs call made only when the consumer pulls it. Chunk
// failures are reported in ChunkResult.Err and do not end the sequence.
// The sequence stops early once ctx is done.
func (f *RangeFetcher) Events(ctx context.Context, from, to uint64) iter.Seq[ChunkResult] {
	return func(yield func(ChunkResult) bool) {
		for chunk := range f.Chunks(from, to) {
			if ctx.Err() != nil {
				return
			}

			if !yield(f.fetchChunk(ctx, chunk)) {
				return
			}
		}
	}
}

func (f *RangeFetcher) fetchChunk(ctx context.Context, chunk CoverageRange) ChunkResult {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(chunk.FromBlock),
		ToBlock:   new(big.Int).SetUint64(chunk.ToBlock),
		Addresses: []ethcommon.Address{f.cfg.Address},
		Topics:    events.Topics(),
	}

	logs, err := f.rpc.GetLogs(ctx, query)
	if err != nil {
		return ChunkResult{Range: chunk, Err: err}
	}

	observedAt := f.now()
	decoded := make([]events.Decoded, 0, len(logs))
	for _, log := range logs {
		decoded = append(decoded, events.Decode(log, observedAt))
	}

	return ChunkResult{Range: chunk, Events: decoded}
}

// FetchRange fetches [from, to] and admits every decoded event into the sink
// in log order. It never returns an error: failed chunks are logged, counted
// and listed in the result.
func (f *RangeFetcher) FetchRange(ctx context.Context, from, to uint64) *FetchResult {
	result := &FetchResult{From: from, To: to}
	if from > to {
		return result
	}

	f.log.Debugf("fetching range from %d to %d", from, to)

	for chunk := range f.Events(ctx, from, to) {
		if chunk.Err != nil {
			f.reportChunkFailure(chunk)
			result.Failed = append(result.Failed, chunk.Range)
			continue
		}

		metrics.ChunksFetchedInc(f.label)
		result.Covered = append(result.Covered, chunk.Range)

		for _, ev := range chunk.Events {
			f.admit(ev, result)
		}
	}

	// chunks never pulled because ctx was cancelled count as failed
	if ctx.Err() != nil {
		var seen []CoverageRange
		seen = append(seen, result.Covered...)
		seen = append(seen, result.Failed...)
		sortRanges(seen)
		result.Failed = append(result.Failed, GetMissingRanges(from, to, mergeRanges(seen))...)
	}

	sortRanges(result.Covered)
	sortRanges(result.Failed)
	result.Covered = mergeRanges(result.Covered)
	result.Failed = mergeRanges(result.Failed)

	f.log.Infof("fetched range from %d to %d: %d orders, %d settlements, %d discarded, %d failed ranges",
		from, to, result.OrdersAdmitted, result.SettlementsAdmitted, result.Discarded, len(result.Failed))

	return result
}

func (f *RangeFetcher) admit(ev events.Decoded, result *FetchResult) {
	switch ev.Kind {
	case events.KindOrder:
		if f.sink.AdmitOrder(*ev.Order) {
			result.OrdersAdmitted++
		} else {
			result.Duplicates++
		}
	case events.KindSettlement:
		if f.sink.AdmitSettlement(*ev.Settlement) {
			result.SettlementsAdmitted++
		} else {
			result.Duplicates++
		}
	default:
		result.Discarded++
		metrics.DecodeDiscardsInc(f.label, events.Reason(ev.Err))
		f.log.Debugf("discarding log: %v", ev.Err)
	}
}

func (f *RangeFetcher) reportChunkFailure(chunk ChunkResult) {
	metrics.ChunksFailedInc(f.label)

	if ok, msg := irpc.IsTooManyResultsError(chunk.Err); ok {
		if sFrom, sTo, parsed := irpc.ParseSuggestedBlockRange(msg); parsed {
			f.log.Warnf("skipping chunk %d-%d: provider limit exceeded, suggested range %d-%d",
				chunk.Range.FromBlock, chunk.Range.ToBlock, sFrom, sTo)
			return
		}
		f.log.Warnf("skipping chunk %d-%d: provider limit exceeded: %s",
			chunk.Range.FromBlock, chunk.Range.ToBlock, msg)
		return
	}

	f.log.Warnf("skipping chunk %d-%d: %v", chunk.Range.FromBlock, chunk.Range.ToBlock, chunk.Err)
}
