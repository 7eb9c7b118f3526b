package common

const (
	ComponentIndexer       = "indexer"
	ComponentRangeFetcher  = "range-fetcher"
	ComponentPollLoop      = "poll-loop"
	ComponentBackfill      = "backfill"
	ComponentAPI           = "api"
	ComponentRPC           = "rpc"
	ComponentMetricsServer = "metrics-server"
)

var AllComponents = map[string]struct{}{
	ComponentIndexer:       {},
	ComponentRangeFetcher:  {},
	ComponentPollLoop:      {},
	ComponentBackfill:      {},
	ComponentAPI:           {},
	ComponentRPC:           {},
	ComponentMetricsServer: {},
}
