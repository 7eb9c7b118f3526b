package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/GridIndexor/internal/common"
	"github.com/goran-ethernal/GridIndexor/internal/logger"
	"github.com/goran-ethernal/GridIndexor/pkg/config"
	pkgrpc "github.com/goran-ethernal/GridIndexor/pkg/rpc"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientImplementsInterface(t *testing.T) {
	var _ pkgrpc.EthClient = (*Client)(nil)
}

func TestClient_CallAppliesTimeout(t *testing.T) {
	c := &Client{callTimeout: 10 * time.Millisecond, log: logger.NewNopLogger()}

	err := c.call(context.Background(), "test_timeout", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorContains(t, err, "test_timeout")
}

func TestClient_CallRecordsMetrics(t *testing.T) {
	c := &Client{log: logger.NewNopLogger()}

	require.NoError(t, c.call(context.Background(), "test_metrics", func(ctx context.Context) error {
		return nil
	}))
	require.Error(t, c.call(context.Background(), "test_metrics", func(ctx context.Context) error {
		return errors.New("429 too many requests")
	}))

	require.InDelta(t, 2, testutil.ToFloat64(RPCRequests.WithLabelValues("test_metrics")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(RPCErrors.WithLabelValues("test_metrics", string(KindRateLimited))), 0)
}

func TestClient_CallRetries(t *testing.T) {
	c := &Client{retry: testRetryConfig(3), log: logger.NewNopLogger()}

	calls := 0
	err := c.call(context.Background(), "test_retry", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.InDelta(t, 1, testutil.ToFloat64(RPCRetries.WithLabelValues("test_retry")), 0)
}

func TestClient_CloseWithoutConnection(t *testing.T) {
	c := &Client{}
	require.NotPanics(t, c.Close)
}

// rpcServer answers eth_blockNumber and eth_getBlockByNumber, recording the block tags it was asked for.
func rpcServer(t *testing.T, latest uint64, tagged map[string]uint64, tags *[]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}

		var result any
		switch req.Method {
		case "eth_blockNumber":
			result = hexutil.Uint64(latest)
		case "eth_getBlockByNumber":
			var tag string
			assert.NoError(t, json.Unmarshal(req.Params[0], &tag))
			*tags = append(*tags, tag)
			result = &types.Header{
				Number:     new(big.Int).SetUint64(tagged[tag]),
				Difficulty: big.NewInt(0),
				Extra:      []byte{},
			}
		default:
			t.Errorf("unexpected method %s", req.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		}))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestClient_BlockNumberFinality(t *testing.T) {
	tests := []struct {
		finality string
		want     uint64
		wantTags []string
	}{
		{finality: "", want: 120},
		{finality: "latest", want: 120},
		{finality: "safe", want: 110, wantTags: []string{"safe"}},
		{finality: "finalized", want: 100, wantTags: []string{"finalized"}},
	}

	for _, tt := range tests {
		t.Run("finality "+tt.finality, func(t *testing.T) {
			var tags []string
			server := rpcServer(t, 120, map[string]uint64{"safe": 110, "finalized": 100}, &tags)

			c, err := NewClient(context.Background(), config.RPCConfig{
				URL:          server.URL,
				CallTimeout:  common.NewDuration(5 * time.Second),
				HeadFinality: tt.finality,
			}, logger.NewNopLogger())
			require.NoError(t, err)
			defer c.Close()

			head, err := c.BlockNumber(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.want, head)
			require.Equal(t, tt.wantTags, tags)
		})
	}
}

func TestNewClient_InvalidFinality(t *testing.T) {
	_, err := NewClient(context.Background(), config.RPCConfig{URL: "http://127.0.0.1:1", HeadFinality: "pending"}, nil)
	require.ErrorContains(t, err, "invalid head finality")
}
