package nse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"industrymap/internal/model"
	"industrymap/internal/retry"
)

// testPolicy keeps backoff delays negligible in tests.
var testPolicy = retry.Policy{MaxAttempts: 3, MaxWait: 4 * time.Millisecond, Base: time.Millisecond}

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(testPolicy,
		WithBaseURL(server.URL),
		WithArchivesURL(server.URL),
		WithTimeout(5*time.Second),
	)
	return c, server
}

func writeSecInfo(w http.ResponseWriter, si map[string]string) {
	resp := map[string]any{
		"equityResponse": []map[string]any{{"secInfo": si}},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeNullSecInfo(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"equityResponse":[{"secInfo":null}]}`)
}

func TestMainboardListings(t *testing.T) {
	// Headers with stray whitespace, plus a short row and a blank symbol.
	csvBody := " SYMBOL , NAME OF COMPANY ,SERIES\n" +
		"RELIANCE,Reliance Industries, EQ\n" +
		"TATASTEEL,Tata Steel,EQ\n" +
		"SHORTROW\n" +
		",No Symbol,EQ\n"

	var path atomic.Value
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		fmt.Fprint(w, csvBody)
	}))

	listings, err := c.MainboardListings(context.Background())
	if err != nil {
		t.Fatalf("MainboardListings failed: %v", err)
	}
	if path.Load() != "/content/equities/EQUITY_L.csv" {
		t.Errorf("path = %v, want mainboard CSV path", path.Load())
	}

	want := []model.Listing{
		{Symbol: "RELIANCE", Series: "EQ"},
		{Symbol: "TATASTEEL", Series: "EQ"},
	}
	if len(listings) != len(want) {
		t.Fatalf("listings = %v, want %v", listings, want)
	}
	for i := range want {
		if listings[i] != want[i] {
			t.Errorf("listings[%d] = %v, want %v", i, listings[i], want[i])
		}
	}
}

func TestSMEListingsPath(t *testing.T) {
	var path atomic.Value
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		fmt.Fprint(w, "SYMBOL,SERIES\nSOMESME,SM\n")
	}))

	listings, err := c.SMEListings(context.Background())
	if err != nil {
		t.Fatalf("SMEListings failed: %v", err)
	}
	if path.Load() != "/emerge/corporates/content/SME_EQUITY_L.csv" {
		t.Errorf("path = %v, want SME CSV path", path.Load())
	}
	if len(listings) != 1 || listings[0].Symbol != "SOMESME" {
		t.Errorf("listings = %v", listings)
	}
}

func TestListingsListFailurePropagates(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.MainboardListings(context.Background())
	var se *retry.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
		t.Fatalf("err = %v, want StatusError 403", err)
	}
}

func TestClassification(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSecInfo(w, map[string]string{
			"macro":         "Energy",
			"sector":        "Oil Gas & Consumable Fuels",
			"industryInfo":  "Petroleum Products",
			"basicIndustry": "Refineries & Marketing",
		})
	}))

	rec, err := c.Classification(context.Background(), "RELIANCE", "EQ", model.SegmentMainboard)
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}
	want := model.Record{"Energy", "Oil Gas & Consumable Fuels", "Petroleum Products", "Refineries & Marketing"}
	for i := range want {
		if rec[i] != want[i] {
			t.Errorf("rec[%d] = %q, want %q", i, rec[i], want[i])
		}
	}
}

func TestClassificationPartialFieldsGetSentinel(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSecInfo(w, map[string]string{"macro": "Energy"})
	}))

	rec, err := c.Classification(context.Background(), "RELIANCE", "EQ", model.SegmentMainboard)
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}
	if rec[0] != "Energy" || rec[1] != "-" || rec[2] != "-" || rec[3] != "-" {
		t.Errorf("rec = %v, want [Energy - - -]", rec)
	}
}

func TestClassificationRightsEntitlementNeverQueried(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeNullSecInfo(w)
	}))

	_, err := c.Classification(context.Background(), "RELIANCE-RE", "EQ", model.SegmentMainboard)
	if !errors.Is(err, model.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0 (rights entitlements are excluded up front)", calls.Load())
	}
}

func TestClassificationVariantFallbackOrder(t *testing.T) {
	// Record the (series, marketType) sequence; only the last variant of
	// the CSV series has data, after both markets of the first.
	var (
		mu   sync.Mutex
		seen []string
	)
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		key := q.Get("series") + "/" + q.Get("marketType")
		mu.Lock()
		seen = append(seen, key)
		mu.Unlock()
		if key == "BE/N" {
			writeSecInfo(w, map[string]string{"macro": "Energy"})
			return
		}
		writeNullSecInfo(w)
	}))

	rec, err := c.Classification(context.Background(), "RELIANCE", "EQ", model.SegmentMainboard)
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}
	if rec == nil {
		t.Fatal("rec = nil, want record from BE/N variant")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"EQ/N", "EQ/G", "BE/N"}
	if len(seen) != len(want) {
		t.Fatalf("variant sequence = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("variant[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestClassificationSMESeriesFallback(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("series"))
		mu.Unlock()
		writeNullSecInfo(w)
	}))

	_, err := c.Classification(context.Background(), "SOMESME", "SM", model.SegmentSME)
	if !errors.Is(err, model.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData after exhausting variants", err)
	}

	// SM appears once (CSV series deduplicated against the fallback list),
	// each series tried against both market types.
	mu.Lock()
	defer mu.Unlock()
	want := []string{"SM", "SM", "ST", "ST"}
	if len(seen) != len(want) {
		t.Fatalf("series sequence = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("series[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestClassificationRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeSecInfo(w, map[string]string{"macro": "Energy"})
	}))

	rec, err := c.Classification(context.Background(), "RELIANCE", "EQ", model.SegmentMainboard)
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}
	if rec == nil {
		t.Fatal("rec = nil after retries")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3 (two 503s then success)", calls.Load())
	}
}

func TestClassificationTerminalStatusSingleCall(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.Classification(context.Background(), "RELIANCE", "EQ", model.SegmentMainboard)
	var se *retry.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want StatusError 404", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (terminal status is never retried)", calls.Load())
	}
}

func TestSeriesCandidates(t *testing.T) {
	tests := []struct {
		name    string
		series  string
		segment model.Segment
		want    []string
	}{
		{"mainboard csv series first", "BZ", model.SegmentMainboard, []string{"BZ", "EQ", "BE"}},
		{"mainboard dedup", "EQ", model.SegmentMainboard, []string{"EQ", "BE"}},
		{"sme dedup", "ST", model.SegmentSME, []string{"ST", "SM"}},
		{"empty csv series", "", model.SegmentMainboard, []string{"EQ", "BE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seriesCandidates(tt.series, tt.segment)
			if len(got) != len(tt.want) {
				t.Fatalf("candidates = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("candidates[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
