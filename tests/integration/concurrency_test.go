package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentSends verifies nonce serialization under concurrent load.
// The fake node rejects any broadcast whose nonce is not exactly the next
// expected one, so without per-user locking most of these requests would
// collide on the same pending nonce and fail.
func TestConcurrentSends(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.postJSON(t, "/api/v1/wallets", map[string]string{"user_id": "hot_sender"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	from := data(t, body)["address"].(string)
	app.chain.setBalance(from, decimal.RequireFromString("1000"))

	concurrency := 50
	reqBody := `{"user_id":"hot_sender","recipient":"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359","amount":"0.1"}`

	var wg sync.WaitGroup
	var succeeded, failed atomic.Int64
	hashes := sync.Map{}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := http.Post(app.server.URL+"/api/v1/transactions", "application/json",
				bytes.NewBufferString(reqBody))
			if err != nil {
				failed.Add(1)
				return
			}
			defer r.Body.Close()

			var out struct {
				Data struct {
					Status string `json:"status"`
					TxHash string `json:"tx_hash"`
				} `json:"data"`
			}
			if r.StatusCode != http.StatusOK || json.NewDecoder(r.Body).Decode(&out) != nil {
				failed.Add(1)
				return
			}
			if out.Data.Status != "success" || out.Data.TxHash == "" {
				failed.Add(1)
				return
			}
			hashes.Store(out.Data.TxHash, true)
			succeeded.Add(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(concurrency), succeeded.Load(), "every serialized send should pass nonce validation")
	assert.Equal(t, int64(0), failed.Load())

	// Every broadcast produced a distinct transaction hash.
	distinct := 0
	hashes.Range(func(_, _ any) bool {
		distinct++
		return true
	})
	assert.Equal(t, concurrency, distinct)

	// The ledger holds exactly one record per send.
	_, listBody := app.get(t, "/api/v1/transactions/hot_sender")
	txs := data(t, listBody)["transactions"].([]any)
	assert.Len(t, txs, concurrency)
}

// TestConcurrentWalletCreation verifies that racing creations for one user
// mint at most one wallet and every caller ends up seeing the same address.
func TestConcurrentWalletCreation(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	concurrency := 20
	reqBody := `{"user_id":"racer"}`

	var wg sync.WaitGroup
	var createdCount, failed atomic.Int64
	addresses := sync.Map{}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := http.Post(app.server.URL+"/api/v1/wallets", "application/json",
				bytes.NewBufferString(reqBody))
			if err != nil {
				failed.Add(1)
				return
			}
			defer r.Body.Close()

			var out struct {
				Data struct {
					Address string `json:"address"`
				} `json:"data"`
			}
			if json.NewDecoder(r.Body).Decode(&out) != nil || out.Data.Address == "" {
				failed.Add(1)
				return
			}

			switch r.StatusCode {
			case http.StatusCreated:
				createdCount.Add(1)
			case http.StatusOK:
				// lost the race, got the existing wallet
			default:
				failed.Add(1)
				return
			}
			addresses.Store(out.Data.Address, true)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(0), failed.Load())
	assert.Equal(t, int64(1), createdCount.Load(), "exactly one creation wins")

	distinct := 0
	var only string
	addresses.Range(func(k, _ any) bool {
		distinct++
		only = k.(string)
		return true
	})
	require.Equal(t, 1, distinct, "all callers must converge on one wallet")

	stored, err := app.wallets.GetByUserID(t.Context(), "racer")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, only, stored.Address)
}
