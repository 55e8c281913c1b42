package api

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fortytw2/leaktest"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollup_book/internal/domain"
	"rollup_book/internal/state"
	"rollup_book/internal/storage"
	"rollup_book/internal/writereq"
	"rollup_book/pkg/quant"
)

var (
	rollupAddr = common.HexToAddress("0xeA8538B194742b992B19e694C13D63120908880e")
	userAddr   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
)

func level(price, qty string) domain.Level {
	return domain.Level{Price: decimal.RequireFromString(price), Quantity: decimal.RequireFromString(qty)}
}

func newTestServer(t *testing.T) (*Server, *state.Store, *storage.Journal, *writereq.Tracker) {
	t.Helper()
	store := state.NewStore()
	journal, err := storage.OpenJournal(storage.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	tracker := writereq.NewTracker(writereq.NewBuilder(writereq.Addresses{Rollup: rollupAddr}))
	return NewServer(store, journal, tracker, Options{}), store, journal, tracker
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	rec := get(t, s.Handler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_Book(t *testing.T) {
	s, store, _, _ := newTestServer(t)
	store.Apply(state.PublicBookFetched{Seq: 1, Book: domain.Book{
		Asks: []domain.Level{level("11", "1")},
		Bids: []domain.Level{level("10", "2")},
	}})

	rec := get(t, s.Handler(), "/book")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Asks []domain.Level `json:"asks"`
		Bids []domain.Level `json:"bids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Asks, 1)
	require.Len(t, body.Bids, 1)
	assert.True(t, body.Asks[0].Price.Equal(decimal.NewFromInt(11)))
	assert.True(t, body.Bids[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestServer_UserRoutesNeedAddress(t *testing.T) {
	s, store, _, _ := newTestServer(t)

	assert.Equal(t, http.StatusConflict, get(t, s.Handler(), "/orders").Code)
	assert.Equal(t, http.StatusConflict, get(t, s.Handler(), "/balances").Code)

	store.SetAddress(&userAddr)
	rec := get(t, s.Handler(), "/orders")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userAddr.Hex())
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/balances").Code)
}

func TestServer_BalancesShowReserved(t *testing.T) {
	s, store, _, _ := newTestServer(t)
	epoch := store.SetAddress(&userAddr)
	total := quant.NewFixed18(big.NewInt(1000))
	store.Apply(state.UserBalancesFetched{Seq: 1, Epoch: epoch, Address: userAddr, Balances: []domain.Balance{
		{Token: rollupAddr, Total: total, Available: quant.NewFixed18(big.NewInt(600))},
	}})

	rec := get(t, s.Handler(), "/balances")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Balances []BalanceView `json:"balances"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Balances, 1)
	assert.Equal(t, BalanceView{
		Token:     rollupAddr.Hex(),
		Total:     "1000",
		Available: "600",
		Reserved:  "400",
	}, body.Balances[0])
}

func TestNewBalanceView_BrokenInvariant(t *testing.T) {
	v := NewBalanceView(domain.Balance{
		Token:     rollupAddr,
		Total:     quant.NewFixed18(big.NewInt(1)),
		Available: quant.NewFixed18(big.NewInt(2)),
	})
	assert.Empty(t, v.Reserved)
	assert.Contains(t, v.Error, "NEGATIVE")
}

func TestServer_Specs(t *testing.T) {
	s, _, _, tracker := newTestServer(t)
	tracker.Update(func(in *writereq.Inputs) {
		in.Side = "BUY"
		in.Quantity = "2"
		in.Price = "10"
	})

	rec := get(t, s.Handler(), "/specs")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []SpecView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, len(writereq.Kinds))

	byKind := make(map[string]SpecView)
	for _, v := range views {
		byKind[v.Kind] = v
	}
	order := byKind["ADD_ORDER"]
	assert.True(t, order.Ready)
	assert.Equal(t, rollupAddr.Hex(), order.Target)
	assert.Equal(t, "addInput", order.Method)
	assert.Contains(t, order.Payload, `"action":"ADD_ORDER"`)

	cancel := byKind["CANCEL_ORDER"]
	assert.False(t, cancel.Ready)
	assert.NotEmpty(t, cancel.Reason)
	assert.Empty(t, cancel.Payload)
}

func TestServer_Journal(t *testing.T) {
	s, _, journal, _ := newTestServer(t)
	ctx := context.Background()
	for _, outcome := range []string{"NOT_READY", "SUBMITTED"} {
		_, err := journal.Record(ctx, storage.Entry{Kind: "ADD_ORDER", Outcome: outcome})
		require.NoError(t, err)
	}

	rec := get(t, s.Handler(), "/journal?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []storage.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "SUBMITTED", entries[0].Outcome)

	assert.Equal(t, http.StatusBadRequest, get(t, s.Handler(), "/journal?limit=abc").Code)
}

func TestServer_MetricsOnlyWhenEnabled(t *testing.T) {
	store := state.NewStore()

	off := NewServer(store, nil, nil, Options{})
	assert.Equal(t, http.StatusNotFound, get(t, off.Handler(), "/metrics").Code)

	on := NewServer(store, nil, nil, Options{Metrics: true})
	assert.Equal(t, http.StatusOK, get(t, on.Handler(), "/metrics").Code)
}

func TestServer_NilSources(t *testing.T) {
	s := NewServer(state.NewStore(), nil, nil, Options{})

	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/specs").Code)
	rec := get(t, s.Handler(), "/journal")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestServer_StreamPushesChanges(t *testing.T) {
	defer leaktest.Check(t)()

	store := state.NewStore()
	s := NewServer(store, nil, nil, Options{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var first state.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, uint64(0), first.Version)

	store.Apply(state.PublicBookFetched{Seq: 1, Book: domain.Book{
		Bids: []domain.Level{level("10", "2")},
	}})

	var next state.Snapshot
	require.NoError(t, conn.ReadJSON(&next))
	assert.Greater(t, next.Version, first.Version)
	require.Len(t, next.PublicBids, 1)
	assert.True(t, next.PublicBids[0].Price.Equal(decimal.NewFromInt(10)))
}

func TestServer_RunShutsDownOnCancel(t *testing.T) {
	defer leaktest.Check(t)()

	s := NewServer(state.NewStore(), nil, nil, Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
