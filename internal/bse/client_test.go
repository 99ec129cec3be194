package bse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"industrymap/internal/model"
	"industrymap/internal/retry"
)

var testPolicy = retry.Policy{MaxAttempts: 3, MaxWait: 4 * time.Millisecond, Base: time.Millisecond}

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(testPolicy, WithBaseURL(server.URL), WithTimeout(5*time.Second))
}

func TestSecurities(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ListofScripData/w" {
			t.Errorf("path = %q, want /ListofScripData/w", r.URL.Path)
		}
		// Numeric scrip codes, one row with no scrip_id, one with no code.
		fmt.Fprint(w, `[
			{"SCRIP_CD": 500325, "scrip_id": "RELIANCE"},
			{"SCRIP_CD": 500470, "scrip_id": "TATASTEEL"},
			{"SCRIP_CD": 999999, "scrip_id": ""},
			{"scrip_id": "NOCODE"}
		]`)
	}))

	secs, err := c.Securities(context.Background())
	if err != nil {
		t.Fatalf("Securities failed: %v", err)
	}

	want := []model.Security{
		{ScripCode: "500325", Symbol: "RELIANCE"},
		{ScripCode: "500470", Symbol: "TATASTEEL"},
	}
	if len(secs) != len(want) {
		t.Fatalf("securities = %v, want %v", secs, want)
	}
	for i := range want {
		if secs[i] != want[i] {
			t.Errorf("securities[%d] = %v, want %v", i, secs[i], want[i])
		}
	}
}

func TestSecuritiesListFailurePropagates(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Securities(context.Background())
	var se *retry.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("err = %v, want StatusError 500", err)
	}
}

func TestClassificationFieldRemap(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ComHeadernew/w" {
			t.Errorf("path = %q, want /ComHeadernew/w", r.URL.Path)
		}
		if got := r.URL.Query().Get("scripcode"); got != "500325" {
			t.Errorf("scripcode = %q, want 500325", got)
		}
		fmt.Fprint(w, `{
			"Sector": "Energy",
			"IndustryNew": "Oil Gas & Consumable Fuels",
			"IGroup": "Petroleum Products",
			"ISubGroup": "Refineries & Marketing"
		}`)
	}))

	rec, err := c.Classification(context.Background(), "500325")
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}

	// BSE vocabulary remaps positionally into Macro/Sector/Industry/Basic.
	want := model.Record{"Energy", "Oil Gas & Consumable Fuels", "Petroleum Products", "Refineries & Marketing"}
	for i := range want {
		if rec[i] != want[i] {
			t.Errorf("rec[%d] = %q, want %q", i, rec[i], want[i])
		}
	}
}

func TestClassificationPartialFields(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Sector": "Energy", "IndustryNew": "", "IGroup": "", "ISubGroup": ""}`)
	}))

	rec, err := c.Classification(context.Background(), "500325")
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}
	if rec[0] != "Energy" || rec[1] != "-" || rec[2] != "-" || rec[3] != "-" {
		t.Errorf("rec = %v, want [Energy - - -]", rec)
	}
}

func TestClassificationNoFieldsIsNoData(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))

	_, err := c.Classification(context.Background(), "123456")
	if !errors.Is(err, model.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestClassificationRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"Sector": "Energy"}`)
	}))

	rec, err := c.Classification(context.Background(), "500325")
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}
	if rec == nil {
		t.Fatal("rec = nil after retry")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one 429 then success)", calls.Load())
	}
}

func TestClassificationTerminalStatusSingleCall(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.Classification(context.Background(), "500325")
	var se *retry.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want StatusError 404", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
