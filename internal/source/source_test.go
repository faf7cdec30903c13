package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	t.Parallel()

	t.Run("strips BOM and trims header", func(t *testing.T) {
		t.Parallel()

		table, err := ParseCSV(strings.NewReader("\ufeffVillage , Yield\nA,10\nB,12\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if table.Columns[0] != "Village" || table.Columns[1] != "Yield" {
			t.Errorf("expected trimmed header without BOM, got %q", table.Columns)
		}
		if len(table.Rows) != 2 {
			t.Errorf("expected 2 rows, got %d", len(table.Rows))
		}
	})

	t.Run("pads ragged rows", func(t *testing.T) {
		t.Parallel()

		table, err := ParseCSV(strings.NewReader("a,b,c\n1\n1,2,3,4\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(table.Rows[0]) != 3 || table.Rows[0][2] != "" {
			t.Errorf("expected padded row, got %q", table.Rows[0])
		}
		if len(table.Rows[1]) != 4 {
			t.Errorf("expected long row kept, got %q", table.Rows[1])
		}
	})

	t.Run("skips blank rows", func(t *testing.T) {
		t.Parallel()

		table, err := ParseCSV(strings.NewReader("a,b\n,\n1,2\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(table.Rows) != 1 {
			t.Errorf("expected 1 row, got %d", len(table.Rows))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseCSV(strings.NewReader("")); !errors.Is(err, ErrNoData) {
			t.Errorf("expected ErrNoData, got %v", err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseCSV(strings.NewReader("a,b\n")); !errors.Is(err, ErrNoData) {
			t.Errorf("expected ErrNoData, got %v", err)
		}
	})
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("sends user agent and parses body", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("Crop,Area\nRice,4.5\n"))
		}))
		defer srv.Close()

		f := NewFetcher(srv.Client(), WithUserAgent("test-agent"))
		table, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotUA != "test-agent" {
			t.Errorf("expected test-agent, got %q", gotUA)
		}
		if table.Rows[0][0] != "Rice" {
			t.Errorf("expected Rice, got %q", table.Rows[0][0])
		}
	})

	t.Run("non-2xx status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrBadStatus) {
			t.Errorf("expected ErrBadStatus, got %v", err)
		}
	})

	t.Run("body over the limit is rejected", func(t *testing.T) {
		t.Parallel()

		var body strings.Builder
		body.WriteString("farm,yield\n")
		for i := range 100 {
			fmt.Fprintf(&body, "farm%03d,12345\n", i)
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body.String()))
		}))
		defer srv.Close()

		limit := int64(body.Len() / 2)
		table, err := NewFetcher(srv.Client(), WithMaxBodySize(limit)).Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("expected ErrBodyTooLarge, got %v", err)
		}
		if table != nil {
			t.Errorf("expected no table, got %d rows", len(table.Rows))
		}
	})

	t.Run("body exactly at the limit is accepted", func(t *testing.T) {
		t.Parallel()

		const body = "a,b\n1,2\n3,4\n"
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()

		table, err := NewFetcher(srv.Client(), WithMaxBodySize(int64(len(body)))).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(table.Rows) != 2 {
			t.Errorf("expected 2 rows, got %d", len(table.Rows))
		}
	})
}
