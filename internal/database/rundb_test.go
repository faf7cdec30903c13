package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dcxsea/fieldreport/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *RunDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testRun(label string, started time.Time) *model.Run {
	run := model.NewRun(model.Dataset{Label: label, Title: label + " Report"})
	run.StartedAt = started
	return run
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if _, err := db.SaveRun(context.Background(), testRun("One Year", time.Now())); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		labels, err := db.ListDatasets(context.Background())
		if err != nil || len(labels) != 1 {
			t.Errorf("expected 1 dataset, got %v (%v)", labels, err)
		}
	})
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	run := testRun("One Year", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	run.DocxPath = "/out/One Year Report.docx"
	run.Digests["One Year Report.docx"] = "abc123"
	run.AddFinding(model.NewFinding("docx_creator", "Document author", "alice", run.DocxPath))
	run.Steps = []model.StepResult{
		{Name: "fetch", Status: model.StepOK},
		{Name: "convert", Status: model.StepFailed, Error: "soffice missing"},
	}
	run.AddDelivery(model.Delivery{Channel: "telegram", Target: "-100123", File: "One Year Report.docx", Sent: true})
	run.AddDelivery(model.Delivery{Channel: "email", Target: "a@example.com", File: "One Year Report.zip", Error: "auth failed"})

	id, err := db.SaveRun(ctx, run)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	got, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Dataset.Title != "One Year Report" || got.DocxPath != run.DocxPath {
		t.Errorf("unexpected run %+v", got)
	}
	if got.Digests["One Year Report.docx"] != "abc123" {
		t.Errorf("expected digest, got %v", got.Digests)
	}
	if len(got.Findings) != 1 || len(got.Steps) != 2 {
		t.Errorf("expected 1 finding and 2 steps, got %d and %d", len(got.Findings), len(got.Steps))
	}

	deliveries, err := db.Deliveries(ctx, id)
	if err != nil {
		t.Fatalf("failed to list deliveries: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	if !deliveries[0].Sent || deliveries[1].Sent || deliveries[1].Error != "auth failed" {
		t.Errorf("unexpected deliveries %+v", deliveries)
	}

	history, err := db.ListRuns(ctx, "One Year", 0)
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(history))
	}
	s := history[0]
	if s.Succeeded || s.FailedSteps != 1 || s.Findings != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
	if !s.StartedAt.Equal(run.StartedAt) {
		t.Errorf("expected start %v, got %v", run.StartedAt, s.StartedAt)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)

	if _, err := db.GetRun(context.Background(), 42); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := db.LatestRun(context.Background(), "One Year"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, label := range []string{"One Year", "6 Months", "One Year", "One Year"} {
		if _, err := db.SaveRun(ctx, testRun(label, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}

	t.Run("filters by dataset newest first", func(t *testing.T) {
		t.Parallel()

		history, err := db.ListRuns(ctx, "One Year", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(history))
		}
		if !history[0].StartedAt.After(history[1].StartedAt) {
			t.Errorf("expected newest first, got %v then %v", history[0].StartedAt, history[1].StartedAt)
		}
	})

	t.Run("empty label returns all runs", func(t *testing.T) {
		t.Parallel()

		history, err := db.ListRuns(ctx, "", 0)
		if err != nil || len(history) != 4 {
			t.Errorf("expected 4 runs, got %d (%v)", len(history), err)
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		history, err := db.ListRuns(ctx, "", 2)
		if err != nil || len(history) != 2 {
			t.Errorf("expected 2 runs, got %d (%v)", len(history), err)
		}
	})

	t.Run("latest run", func(t *testing.T) {
		t.Parallel()

		run, err := db.LatestRun(ctx, "One Year")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !run.StartedAt.Equal(base.Add(3 * time.Hour)) {
			t.Errorf("expected latest run, got %v", run.StartedAt)
		}
	})

	t.Run("lists datasets", func(t *testing.T) {
		t.Parallel()

		labels, err := db.ListDatasets(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(labels) != 2 || labels[0] != "6 Months" || labels[1] != "One Year" {
			t.Errorf("unexpected labels %v", labels)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		zero bool
	}{
		{"2025-03-01T10:00:00.123456789Z", false},
		{"2025-03-01T10:00:00Z", false},
		{"2025-03-01 10:00:00", false},
		{"yesterday", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.in); got.IsZero() != tt.zero {
				t.Errorf("expected zero=%v, got %v", tt.zero, got)
			}
		})
	}
}
