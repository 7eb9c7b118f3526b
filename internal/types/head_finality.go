package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rpc"
)

// HeadFinality selects which block the indexer treats as the chain head.
type HeadFinality string

const (
	// HeadLatest follows the newest block; may be reorged away.
	HeadLatest HeadFinality = "latest"

	// HeadSafe follows the safe block.
	HeadSafe HeadFinality = "safe"

	// HeadFinalized follows the finalized block.
	HeadFinalized HeadFinality = "finalized"
)

func (f HeadFinality) String() string {
	return string(f)
}

// IsValid reports whether f is a known finality.
func (f HeadFinality) IsValid() bool {
	switch f {
	case HeadLatest, HeadSafe, HeadFinalized:
		return true
	default:
		return false
	}
}

// BlockNumberArg returns the block tag as the number go-ethereum clients
// accept in place of a height.
func (f HeadFinality) BlockNumberArg() *big.Int {
	switch f {
	case HeadSafe:
		return big.NewInt(int64(rpc.SafeBlockNumber))
	case HeadFinalized:
		return big.NewInt(int64(rpc.FinalizedBlockNumber))
	default:
		return big.NewInt(int64(rpc.LatestBlockNumber))
	}
}

// ParseHeadFinality parses s. An empty string means latest.
func ParseHeadFinality(s string) (HeadFinality, error) {
	if s == "" {
		return HeadLatest, nil
	}

	f := HeadFinality(s)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid head finality: %s (must be one of: latest, safe, finalized)", s)
	}
	return f, nil
}
