package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dcxsea/fieldreport/internal/config"
	"github.com/dcxsea/fieldreport/internal/model"
)

// recordingFetcher remembers the URL it was asked for.
type recordingFetcher struct {
	table *model.Table
	err   error
	url   string
}

func (f *recordingFetcher) Fetch(_ context.Context, url string) (*model.Table, error) {
	f.url = url
	return f.table, f.err
}

func TestDatasetPreview(t *testing.T) {
	t.Parallel()

	newCfg := func() *config.Config {
		cfg := config.NewConfig()
		cfg.Settings.OverviewURL = "http://example.com/overview.csv"
		cfg.Settings.Datasets = []model.Dataset{
			{Label: "One Year", Title: "One Year Report", URL: "http://example.com/year.csv"},
		}
		return cfg
	}

	t.Run("overview without a dataset", func(t *testing.T) {
		t.Parallel()
		f := &recordingFetcher{table: sampleTable()}

		md, err := datasetPreview(context.Background(), newCfg(), f, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.url != "http://example.com/overview.csv" {
			t.Errorf("expected overview URL, got %q", f.url)
		}
		if !strings.Contains(md, overviewTitle) || !strings.Contains(md, "North") {
			t.Errorf("expected overview table, got %q", md)
		}
	})

	t.Run("named dataset", func(t *testing.T) {
		t.Parallel()
		f := &recordingFetcher{table: sampleTable()}

		md, err := datasetPreview(context.Background(), newCfg(), f, []string{"one year"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.url != "http://example.com/year.csv" {
			t.Errorf("expected dataset URL, got %q", f.url)
		}
		if !strings.Contains(md, "One Year Report") {
			t.Errorf("expected dataset title, got %q", md)
		}
	})

	t.Run("unknown dataset", func(t *testing.T) {
		t.Parallel()
		_, err := datasetPreview(context.Background(), newCfg(), &recordingFetcher{}, []string{"zzzz"})
		if !errors.Is(err, config.ErrUnknownDataset) {
			t.Errorf("expected %v, got %v", config.ErrUnknownDataset, err)
		}
	})

	t.Run("missing overview URL", func(t *testing.T) {
		t.Parallel()
		cfg := newCfg()
		cfg.Settings.OverviewURL = ""
		if _, err := datasetPreview(context.Background(), cfg, &recordingFetcher{}, nil); err == nil {
			t.Error("expected error without an overview URL")
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()
		f := &recordingFetcher{err: errors.New("status 404")}
		_, err := datasetPreview(context.Background(), newCfg(), f, nil)
		if err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected fetch error, got %v", err)
		}
	})
}

func TestDocumentPreview(t *testing.T) {
	t.Parallel()

	md, err := documentPreview(context.Background(), config.NewConfig(), sampleNarrative, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(md, "Here is the report you asked for") {
		t.Error("expected the first line to be dropped")
	}
	for _, want := range []string{"# Field Report", "## Summary", "**every**", "North", "Keep the new seed mix"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in preview, got:\n%s", want, md)
		}
	}
}
