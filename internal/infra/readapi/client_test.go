package readapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"rollup_book/internal/infra"
)

// MockRoundTripper allows us to mock HTTP responses
type MockRoundTripper struct {
	Func func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Func(req)
}

func jsonResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(fn func(req *http.Request) (*http.Response, error)) *Client {
	client := NewClient(infra.DefaultConfig())
	client.httpClient.Transport = &MockRoundTripper{Func: fn}
	return client
}

func TestClient_FetchBook_Public(t *testing.T) {
	var paths []string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.URL.Path)
		if req.URL.RawQuery != "" {
			t.Errorf("public book must not carry a query, got %q", req.URL.RawQuery)
		}
		if ua := req.Header.Get("User-Agent"); ua != "rollup-book/dev" {
			t.Errorf("unexpected User-Agent: %s", ua)
		}
		if req.URL.Path == "/asks" {
			return jsonResponse(200, `[{"price":11,"quantity":1}]`), nil
		}
		return jsonResponse(200, `[{"price":9,"quantity":3}]`), nil
	})

	book, err := client.FetchBook(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchBook failed: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/asks" || paths[1] != "/bids" {
		t.Errorf("unexpected request sequence: %v", paths)
	}
	if book.Asks[0].Price.String() != "11" || book.Bids[0].Quantity.String() != "3" {
		t.Errorf("unexpected book: %+v", book)
	}
}

func TestClient_FetchBook_User(t *testing.T) {
	addr := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if got := req.URL.Query().Get("address"); got != addr.Hex() {
			t.Errorf("address query = %q, want %q", got, addr.Hex())
		}
		return jsonResponse(200, `[]`), nil
	})

	book, err := client.FetchBook(context.Background(), &addr)
	if err != nil {
		t.Fatalf("FetchBook failed: %v", err)
	}
	if len(book.Asks) != 0 || len(book.Bids) != 0 {
		t.Errorf("expected empty book, got %+v", book)
	}
}

func TestClient_FetchBalances(t *testing.T) {
	addr := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/balance" {
			t.Errorf("Unexpected path: %s", req.URL.Path)
		}
		return jsonResponse(200, `[{"token":"0x5FbDB2315678afecb367f032d93F642f64180aa3","total":"10","available":"4"}]`), nil
	})

	bals, err := client.FetchBalances(context.Background(), addr)
	if err != nil {
		t.Fatalf("FetchBalances failed: %v", err)
	}
	if len(bals) != 1 {
		t.Fatalf("unexpected balances: %+v", bals)
	}
	if reserved, err := bals[0].Reserved(); err != nil || reserved.String() != "6" {
		t.Errorf("expected reserved 6, got %s (%v)", reserved, err)
	}
}

func TestClient_StatusError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(503, "maintenance"), nil
	})

	_, err := client.FetchAsks(context.Background(), nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != 503 || se.Body != "maintenance" {
		t.Errorf("unexpected status error: %+v", se)
	}
}

func TestClient_BidsFailureFailsBook(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/bids" {
			return nil, errors.New("connection refused")
		}
		return jsonResponse(200, `[]`), nil
	})

	if _, err := client.FetchBook(context.Background(), nil); err == nil {
		t.Error("expected error when one side fails")
	}
}
