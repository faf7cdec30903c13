package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/dcxsea/fieldreport/internal/pipeline"
)

type fakeFetcher struct {
	tables map[string]*model.Table
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*model.Table, error) {
	t, ok := f.tables[url]
	if !ok {
		return nil, errors.New("status 404")
	}
	return t, nil
}

var testDatasets = []model.Dataset{
	{Label: "6 Months", Title: "6 Months Report", URL: "six"},
	{Label: "One Year", Title: "One Year Report", URL: "year"},
	{Label: "6 & 12 Months", Title: "6 & 12 Months Report", URL: "both"},
}

func newTestApp(gen GenerateFunc) *App {
	fetcher := &fakeFetcher{tables: map[string]*model.Table{
		"overview": {Columns: []string{"Period", "Households"}, Rows: [][]string{{"6 Months", "40"}}},
		"six":      {Columns: []string{"Village"}},
		"year":     {Columns: []string{"Village", "Wells"}, Rows: [][]string{{"Kibera", "4"}, {"Mathare"}}},
	}}
	return NewApp(testDatasets, fetcher, gen, WithOverviewURL("overview"))
}

// drain executes cmd and feeds every resulting message back into the app
// until no commands remain. Spinner ticks are dropped.
func drain(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("too many commands")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg:
		default:
			_, c := app.Update(msg)
			queue = append(queue, c)
		}
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, app *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := app.Update(key(k))
		drain(t, app, cmd)
	}
}

func TestNewApp(t *testing.T) {
	t.Parallel()

	app := newTestApp(nil)
	items := app.list.Items()
	if len(items) != 4 {
		t.Fatalf("expected overview plus 3 datasets, got %d", len(items))
	}
	if first := items[0].(datasetItem); !first.overview {
		t.Error("expected the first entry to be the overview")
	}
	if !app.current.overview {
		t.Error("expected the overview to be selected initially")
	}
}

func TestInitLoadsOverview(t *testing.T) {
	t.Parallel()

	app := newTestApp(nil)
	drain(t, app, app.Init())

	if app.loading {
		t.Error("expected loading to finish")
	}
	if app.data == nil || len(app.table.Rows()) != 1 {
		t.Fatalf("expected overview row, got %+v", app.data)
	}
	if !strings.Contains(app.View(), "Overview") {
		t.Errorf("expected overview heading in view:\n%s", app.View())
	}
}

func TestSelectDataset(t *testing.T) {
	t.Parallel()

	app := newTestApp(nil)
	drain(t, app, app.Init())
	press(t, app, "down", "down", "enter")

	if app.current.ds.Label != "One Year" {
		t.Fatalf("expected One Year, got %q", app.current.ds.Label)
	}
	if len(app.table.Rows()) != 2 {
		t.Errorf("expected 2 rows, got %d", len(app.table.Rows()))
	}
	if len(app.table.Columns()) != 2 {
		t.Errorf("expected 2 columns, got %d", len(app.table.Columns()))
	}
}

func TestFetchErrorIsShown(t *testing.T) {
	t.Parallel()

	app := newTestApp(nil)
	drain(t, app, app.Init())
	press(t, app, "down", "down", "down", "enter")

	if app.err == nil {
		t.Fatal("expected fetch error")
	}
	if !strings.Contains(app.View(), "Failed to fetch data") {
		t.Errorf("expected error in view:\n%s", app.View())
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("needs a dataset", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(nil)
		drain(t, app, app.Init())
		press(t, app, "g")

		if app.generating || len(app.status) != 1 || !strings.Contains(app.status[0], "Select a dataset") {
			t.Errorf("unexpected status %q", app.status)
		}
	})

	t.Run("refuses empty data", func(t *testing.T) {
		t.Parallel()

		called := false
		app := newTestApp(func(context.Context, model.Dataset, pipeline.StepHook) (*model.Run, error) {
			called = true
			return nil, nil
		})
		drain(t, app, app.Init())
		press(t, app, "down", "enter", "g")

		if called {
			t.Error("generator should not run without data")
		}
		if len(app.status) != 1 || !strings.Contains(app.status[0], "No data available to send.") {
			t.Errorf("unexpected status %q", app.status)
		}
	})

	t.Run("streams step results", func(t *testing.T) {
		t.Parallel()

		var got model.Dataset
		app := newTestApp(func(_ context.Context, ds model.Dataset, hook pipeline.StepHook) (*model.Run, error) {
			got = ds
			run := model.NewRun(ds)
			hook(run, model.StepResult{Name: "fetch", Status: model.StepOK})
			hook(run, model.StepResult{Name: "convert", Status: model.StepFailed, Error: "soffice missing"})
			hook(run, model.StepResult{Name: "email", Status: model.StepSkipped})
			run.ArchivePath = "/out/One Year Report.zip"
			return run, nil
		})
		drain(t, app, app.Init())
		press(t, app, "down", "down", "enter", "g")

		if got.Label != "One Year" {
			t.Errorf("expected One Year to be generated, got %q", got.Label)
		}
		if app.generating {
			t.Error("expected generation to finish")
		}
		status := strings.Join(app.status, "\n")
		for _, want := range []string{"Generating One Year Report", "fetch", "convert: soffice missing", "email skipped", "/out/One Year Report.zip"} {
			if !strings.Contains(status, want) {
				t.Errorf("expected %q in status:\n%s", want, status)
			}
		}
		if app.last == nil {
			t.Error("expected last run to be kept")
		}
	})

	t.Run("reports generator error", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(func(context.Context, model.Dataset, pipeline.StepHook) (*model.Run, error) {
			return nil, errors.New("missing api key")
		})
		drain(t, app, app.Init())
		press(t, app, "down", "down", "enter", "g")

		if !strings.Contains(strings.Join(app.status, "\n"), "missing api key") {
			t.Errorf("expected error in status %q", app.status)
		}
	})
}

func TestFilterInputIsNotACommand(t *testing.T) {
	t.Parallel()

	called := false
	app := newTestApp(func(_ context.Context, ds model.Dataset, _ pipeline.StepHook) (*model.Run, error) {
		called = true
		return model.NewRun(ds), nil
	})
	drain(t, app, app.Init())
	press(t, app, "down", "down", "enter")

	// Commands from the filter input are cursor blinks; they are not run.
	for _, k := range []string{"/", "g", "q"} {
		app.Update(key(k))
	}

	if !app.list.SettingFilter() {
		t.Fatal("expected the list to be filtering")
	}
	if got := app.list.FilterValue(); got != "gq" {
		t.Errorf("expected filter %q, got %q", "gq", got)
	}
	if app.generating || called {
		t.Error("expected typing g in the filter not to start generation")
	}
}

func TestTabSwitchesFocus(t *testing.T) {
	t.Parallel()

	app := newTestApp(nil)
	press(t, app, "tab")
	if app.focus != focusTable || !app.table.Focused() {
		t.Error("expected table focus")
	}
	press(t, app, "tab")
	if app.focus != focusList || app.table.Focused() {
		t.Error("expected list focus")
	}
}

func TestQuit(t *testing.T) {
	t.Parallel()

	app := newTestApp(nil)
	_, cmd := app.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
