package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/dcxsea/fieldreport/internal/pipeline"
)

// overviewLabel is the list entry that shows the overview sheet.
const overviewLabel = " "

// maxColumnWidth caps data table columns.
const maxColumnWidth = 24

// TableFetcher retrieves a sheet as a table.
type TableFetcher interface {
	Fetch(ctx context.Context, url string) (*model.Table, error)
}

// GenerateFunc generates the report for a dataset, calling hook after each
// pipeline step.
type GenerateFunc func(ctx context.Context, ds model.Dataset, hook pipeline.StepHook) (*model.Run, error)

type focus int

const (
	focusList focus = iota
	focusTable
)

type tableLoadedMsg struct {
	label string
	table *model.Table
	err   error
}

type stepMsg struct {
	result model.StepResult
}

type runFinishedMsg struct {
	run *model.Run
	err error
}

// datasetItem implements list.Item for a dataset or the overview entry.
type datasetItem struct {
	ds       model.Dataset
	overview bool
}

func (i datasetItem) Title() string {
	if i.overview {
		return "Overview"
	}
	return i.ds.Label
}

func (i datasetItem) Description() string {
	if i.overview {
		return "Summary pivot of all periods"
	}
	return i.ds.Title
}

func (i datasetItem) FilterValue() string { return i.ds.Label }

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("28")).
			Padding(0, 1)
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("34"))
	okStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	failStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skipStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// App is the dashboard model.
type App struct {
	ctx         context.Context
	fetcher     TableFetcher
	generate    GenerateFunc
	overviewURL string

	list    list.Model
	table   table.Model
	spinner spinner.Model
	focus   focus

	// current is the entry whose table is shown.
	current datasetItem
	data    *model.Table

	loading    bool
	generating bool
	progress   chan tea.Msg

	status []string
	err    error
	last   *model.Run

	width  int
	height int
}

// AppOption customizes App construction.
type AppOption func(*App)

// WithContext sets the context used for fetches and generation.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithOverviewURL sets the sheet shown for the blank entry.
func WithOverviewURL(url string) AppOption {
	return func(a *App) {
		a.overviewURL = url
	}
}

// NewApp creates the dashboard for the given datasets.
func NewApp(datasets []model.Dataset, fetcher TableFetcher, generate GenerateFunc, opts ...AppOption) *App {
	items := make([]list.Item, 0, len(datasets)+1)
	items = append(items, datasetItem{ds: model.Dataset{Label: overviewLabel}, overview: true})
	for _, ds := range datasets {
		items = append(items, datasetItem{ds: ds})
	}

	l := list.New(items, list.NewDefaultDelegate(), 28, 20)
	l.Title = "Choose Dataset"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	t := table.New(table.WithFocused(false), table.WithHeight(12))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("28")).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := &App{
		ctx:      context.Background(),
		fetcher:  fetcher,
		generate: generate,
		list:     l,
		table:    t,
		spinner:  sp,
		current:  items[0].(datasetItem),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Init loads the overview sheet.
func (a *App) Init() tea.Cmd {
	return a.load(a.current)
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(28, max(5, msg.Height-12))
		a.table.SetHeight(max(3, msg.Height-14))
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tableLoadedMsg:
		if msg.label != a.current.ds.Label {
			return a, nil
		}
		a.loading = false
		a.err = msg.err
		a.data = msg.table
		a.setRows(msg.table)
		return a, nil

	case stepMsg:
		a.status = append(a.status, stepLine(msg.result))
		return a, waitForProgress(a.progress)

	case runFinishedMsg:
		a.generating = false
		a.progress = nil
		a.last = msg.run
		switch {
		case msg.err != nil:
			a.status = append(a.status, failStyle.Render("Failed to generate report: "+msg.err.Error()))
		case msg.run != nil && msg.run.ArchivePath != "":
			a.status = append(a.status, okStyle.Render("Reports saved to "+msg.run.ArchivePath))
		default:
			a.status = append(a.status, failStyle.Render("Failed to generate report."))
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loading && !a.generating {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// Filter results and cursor blinks belong to the list.
	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While a filter is typed every key except ctrl+c is filter input.
	if a.focus == focusList && a.list.SettingFilter() && msg.String() != "ctrl+c" {
		var cmd tea.Cmd
		a.list, cmd = a.list.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "tab":
		if a.focus == focusList {
			a.focus = focusTable
			a.table.Focus()
		} else {
			a.focus = focusList
			a.table.Blur()
		}
		return a, nil
	case "g":
		return a, a.startGenerate()
	case "enter":
		if a.focus == focusList {
			if item, ok := a.list.SelectedItem().(datasetItem); ok {
				return a, a.load(item)
			}
		}
		return a, nil
	}

	var cmd tea.Cmd
	if a.focus == focusTable {
		a.table, cmd = a.table.Update(msg)
		return a, cmd
	}
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

// load switches to item and fetches its sheet.
func (a *App) load(item datasetItem) tea.Cmd {
	a.current = item
	a.data = nil
	a.err = nil
	a.setRows(nil)

	url := item.ds.URL
	if item.overview {
		url = a.overviewURL
	}
	if url == "" || a.fetcher == nil {
		return nil
	}

	a.loading = true
	ctx, fetcher, label := a.ctx, a.fetcher, item.ds.Label
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		t, err := fetcher.Fetch(ctx, url)
		return tableLoadedMsg{label: label, table: t, err: err}
	})
}

// startGenerate runs the pipeline for the current dataset in the
// background. Progress arrives as stepMsg values followed by one
// runFinishedMsg.
func (a *App) startGenerate() tea.Cmd {
	switch {
	case a.generating:
		return nil
	case a.current.overview:
		a.status = []string{"Select a dataset to generate a report."}
		return nil
	case a.loading:
		a.status = []string{"Data is still loading."}
		return nil
	case a.data.Empty():
		a.status = []string{failStyle.Render("No data available to send.")}
		return nil
	case a.generate == nil:
		return nil
	}

	a.generating = true
	a.status = []string{"Generating " + a.current.ds.Title + "..."}

	progress := make(chan tea.Msg, 32)
	a.progress = progress
	ctx, gen, ds := a.ctx, a.generate, a.current.ds

	go func() {
		run, err := gen(ctx, ds, func(_ *model.Run, r model.StepResult) {
			progress <- stepMsg{result: r}
		})
		progress <- runFinishedMsg{run: run, err: err}
	}()

	return tea.Batch(a.spinner.Tick, waitForProgress(progress))
}

func waitForProgress(ch chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return <-ch
	}
}

func (a *App) setRows(t *model.Table) {
	if t == nil || len(t.Columns) == 0 {
		a.table.SetRows(nil)
		a.table.SetColumns(nil)
		return
	}

	cols := make([]table.Column, len(t.Columns))
	for i, name := range t.Columns {
		w := len([]rune(name))
		for _, row := range t.Rows {
			if i < len(row) {
				w = max(w, len([]rune(row[i])))
			}
		}
		cols[i] = table.Column{Title: name, Width: min(max(w, 3), maxColumnWidth)}
	}

	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(table.Row, len(cols))
		copy(row, r)
		rows[i] = row
	}

	// Rows must be cleared before the column count changes.
	a.table.SetRows(nil)
	a.table.SetColumns(cols)
	a.table.SetRows(rows)
	a.table.SetCursor(0)
}

func stepLine(r model.StepResult) string {
	switch r.Status {
	case model.StepOK:
		return okStyle.Render(fmt.Sprintf("✓ %s", r.Name))
	case model.StepFailed:
		return failStyle.Render(fmt.Sprintf("✗ %s: %s", r.Name, r.Error))
	default:
		return skipStyle.Render(fmt.Sprintf("- %s skipped", r.Name))
	}
}

// View renders the dashboard.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Field Report Dashboard"))
	b.WriteString("\n\n")

	listPane, tablePane := paneStyle, paneStyle
	if a.focus == focusList {
		listPane = focusedPaneStyle
	} else {
		tablePane = focusedPaneStyle
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		listPane.Render(a.list.View()),
		tablePane.Render(a.dataView()),
	))
	b.WriteString("\n")

	if a.generating {
		b.WriteString(a.spinner.View() + " working\n")
	}
	for _, line := range a.status {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ move • enter select • / filter • tab switch pane • g generate report • q quit"))
	b.WriteString("\n")
	return b.String()
}

func (a *App) dataView() string {
	heading := a.current.ds.Title
	if a.current.overview {
		heading = "Overview"
	}

	switch {
	case a.loading:
		return heading + "\n\n" + a.spinner.View() + " loading data"
	case a.err != nil:
		return heading + "\n\n" + failStyle.Render("Failed to fetch data: "+a.err.Error())
	case a.data.Empty():
		return heading + "\n\nNo data available."
	default:
		return heading + "\n\n" + a.table.View()
	}
}

// Run starts the dashboard and blocks until it exits.
func Run(ctx context.Context, app *App) error {
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
