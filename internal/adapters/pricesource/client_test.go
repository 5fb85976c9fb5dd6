package pricesource

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const samplePage = `<html><head><title>Abyssal whip - Grand Exchange - RuneScape</title></head>
<body><script>
average30.push([new Date('2024/01/13'), 1480000, 1470000]);
average30.push([new Date('2024/01/14'), 1490000, 1475000]);
average30.push([new Date('2024/01/15'), 1500000, 1480000]);
trade180.push([new Date('2024/01/15'), 4321]);
</script></body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	client := NewClient(Options{
		BaseURL:   server.URL + "/viewitem",
		Timeout:   2 * time.Second,
		RetryBase: time.Millisecond,
		Logger:    log.New(&buf, "", 0),
	})
	return client, &buf
}

func TestClient_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("parses price and history", func(t *testing.T) {
		var gotObj string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotObj = r.URL.Query().Get("obj")
			fmt.Fprint(w, samplePage)
		})

		quote := client.Fetch(ctx, "4151")
		if quote == nil {
			t.Fatal("expected quote")
		}
		if gotObj != "4151" {
			t.Errorf("expected obj=4151, got %q", gotObj)
		}
		if quote.CurrentPrice != 1500000 {
			t.Errorf("expected 1500000, got %d", quote.CurrentPrice)
		}
		if len(quote.History) != 3 {
			t.Fatalf("expected 3 history points, got %d", len(quote.History))
		}
		last := quote.History[2]
		if last.Date != "2024-01-15" || last.Volume != 4321 {
			t.Errorf("unexpected last point: %+v", last)
		}
	})

	t.Run("retries a server error once", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, samplePage)
		})

		if quote := client.Fetch(ctx, "4151"); quote == nil {
			t.Fatal("expected quote after retry")
		}
		if calls != 2 {
			t.Errorf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("gives up after two server errors", func(t *testing.T) {
		var calls int32
		client, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		})

		if quote := client.Fetch(ctx, "4151"); quote != nil {
			t.Fatalf("expected nil quote, got %+v", quote)
		}
		if calls != 2 {
			t.Errorf("expected 2 calls, got %d", calls)
		}
		if logs.Len() == 0 {
			t.Error("expected failure to be logged")
		}
	})

	t.Run("does not retry a client error", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		})

		if quote := client.Fetch(ctx, "4151"); quote != nil {
			t.Fatalf("expected nil quote, got %+v", quote)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("page without a price", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><title>Maintenance</title></html>")
		})

		if quote := client.Fetch(ctx, "4151"); quote != nil {
			t.Fatalf("expected nil quote, got %+v", quote)
		}
	})
}

func TestParsePage(t *testing.T) {
	t.Run("name from title", func(t *testing.T) {
		page := ParsePage(samplePage)
		if page.Name != "Abyssal whip" {
			t.Errorf("expected name, got %q", page.Name)
		}
	})

	t.Run("guide price fallback", func(t *testing.T) {
		tests := []struct {
			html string
			want int64
		}{
			{"Current Guide Price 1,234", 1234},
			{"Current Guide Price: 1.5M", 1500000},
			{"current guide price <span>12.3k</span>", 12300},
		}
		for _, tt := range tests {
			page := ParsePage(tt.html)
			if page.Price == nil || *page.Price != tt.want {
				t.Errorf("ParsePage(%q) price = %v, want %d", tt.html, page.Price, tt.want)
			}
			if len(page.History) != 0 {
				t.Errorf("expected no history for %q", tt.html)
			}
		}
	})

	t.Run("skips unparseable dates", func(t *testing.T) {
		page := ParsePage(`average30.push([new Date(someVar), 5, 5]);`)
		if page.Price != nil {
			t.Errorf("expected no price, got %d", *page.Price)
		}
	})
}
