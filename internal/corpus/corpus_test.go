package corpus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/policy-bot/internal/policy"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Ignored title</title><style>body { color: red; }</style></head>
<body>
  <nav>Home</nav>
  <script>var tracking = "nope";</script>
  <h1>Student   Attendance</h1>
  <p>Students must attend
     at least 85% of classes.</p>
  <noscript>enable javascript</noscript>
  <svg><text>chart</text></svg>
</body>
</html>`

func TestExtractText(t *testing.T) {
	got, err := ExtractText(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	want := "Home Student Attendance Students must attend at least 85% of classes."
	if got != want {
		t.Errorf("ExtractText =\n%q\nwant\n%q", got, want)
	}
}

func TestExtractTextNormalizesNFKD(t *testing.T) {
	got, err := ExtractText(strings.NewReader("<p>caf\u00e9 \ufb01le</p>"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "cafe\u0301 file" {
		t.Errorf("got %q", got)
	}
}

func TestHTTPFetcher(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	text, err := f.Fetch(context.Background(), srv.URL+"/policy")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(text, "at least 85% of classes") {
		t.Errorf("unexpected text %q", text)
	}
	if !strings.HasPrefix(gotUA, "policybot/") {
		t.Errorf("user agent = %q", gotUA)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(50 * time.Millisecond)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected timeout error")
	}
}

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, url string) (string, error) {
	text, ok := m[url]
	if !ok {
		return "", errors.New("connection refused")
	}
	return text, nil
}

func TestLoaderSkipsFailuresAndShortPages(t *testing.T) {
	reg, err := policy.NewRegistry([]policy.Policy{
		{Name: "Good", URL: "u1"},
		{Name: "Down", URL: "u2"},
		{Name: "Short", URL: "u3"},
		{Name: "Also good", URL: "u4"},
	})
	if err != nil {
		t.Fatal(err)
	}
	long := strings.Repeat("policy text ", 20)
	fetcher := mapFetcher{"u1": long, "u3": "tiny", "u4": long + "more"}

	docs, skipped, err := NewLoader(fetcher, DefaultMinDocumentLength).Load(context.Background(), reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 2 || docs[0].Name != "Good" || docs[1].Name != "Also good" {
		t.Fatalf("unexpected documents %+v", docs)
	}
	if docs[0].Source != "u1" {
		t.Errorf("source = %q", docs[0].Source)
	}
	if len(skipped) != 2 || skipped[0].Name != "Down" || skipped[1].Name != "Short" {
		t.Errorf("unexpected skipped %+v", skipped)
	}
}

func TestLoaderCancelled(t *testing.T) {
	reg, _ := policy.NewRegistry([]policy.Policy{{Name: "A", URL: "u1"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewLoader(mapFetcher{}, 0).Load(ctx, reg); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
