package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dcxsea/fieldreport/internal/document"
	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// Dataset is a selectable reporting period.
type Dataset = model.Dataset

// sheetBase is the published spreadsheet the default datasets export from.
const sheetBase = "https://docs.google.com/spreadsheets/d/e/2PACX-1vSnUF27sotZoKCfxKc-dWsLXlKaObixAwluYlygi2GxapQ0QwuFNZkP-3Je_y1YkY8tXgaxm7szHei1/pub"

func sheetCSV(gid string) string {
	return sheetBase + "?gid=" + gid + "&single=true&output=csv"
}

// LLMSettings configures the narrative generator.
type LLMSettings struct {
	// Model is the chat completion model name.
	Model string `yaml:"model"`

	// BaseURL overrides the API endpoint, e.g. for a compatible gateway.
	BaseURL string `yaml:"baseURL,omitempty"`

	// SystemPrompt is sent as the system message.
	SystemPrompt string `yaml:"systemPrompt"`

	// Instructions replaces the built-in report instructions when set.
	Instructions string `yaml:"instructions,omitempty"`

	// MaxTokens is the completion length ceiling.
	MaxTokens int `yaml:"maxTokens"`

	// Temperature is the sampling temperature.
	Temperature float32 `yaml:"temperature"`
}

// ConverterSettings configures PDF conversion.
type ConverterSettings struct {
	// Binary is the LibreOffice executable.
	Binary string `yaml:"binary"`

	// Attempts is the total number of conversion attempts.
	Attempts uint `yaml:"attempts"`

	// Delay is the fixed wait between attempts.
	Delay time.Duration `yaml:"delay"`
}

// EmailSettings configures the email channel.
type EmailSettings struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port"`
	From       string   `yaml:"from"`
	Username   string   `yaml:"username,omitempty"`
	Recipients []string `yaml:"recipients,omitempty"`
}

// TelegramSettings configures the Telegram channel.
type TelegramSettings struct {
	// ChatID is a numeric chat id or an @channel name.
	ChatID string `yaml:"chatID,omitempty"`

	// Endpoint overrides the Bot API endpoint format string.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// File represents the structure of the .fieldreport settings file.
type File struct {
	// Cover is the fixed cover page wording.
	Cover document.CoverText `yaml:"cover"`

	// Datasets are the selectable periods, in display order.
	Datasets []Dataset `yaml:"datasets"`

	// OverviewURL is the pivot sheet shown when no dataset is selected.
	OverviewURL string `yaml:"overviewURL"`

	LLM       LLMSettings       `yaml:"llm"`
	Converter ConverterSettings `yaml:"converter"`
	Email     EmailSettings     `yaml:"email"`
	Telegram  TelegramSettings  `yaml:"telegram"`

	// Headers are added to every data and logo request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultFile returns the built-in settings.
func DefaultFile() *File {
	return &File{
		Cover: document.DefaultCoverText(),
		Datasets: []Dataset{
			{Label: "6 Months", Title: "6 Months Report", URL: sheetCSV("0")},
			{Label: "One Year", Title: "One Year Report", URL: sheetCSV("2140672542")},
			{Label: "6 & 12 Months", Title: "6 & 12 Months Report", URL: sheetCSV("1666040136")},
		},
		OverviewURL: sheetCSV("254021688"),
		LLM: LLMSettings{
			Model:        "gpt-4o-mini",
			SystemPrompt: "You are a helpful assistant.",
			MaxTokens:    8000,
			Temperature:  0.7,
		},
		Converter: ConverterSettings{
			Binary:   "soffice",
			Attempts: 3,
			Delay:    5 * time.Second,
		},
		Email: EmailSettings{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		Telegram: TelegramSettings{
			ChatID: "-1002164741954",
		},
		Headers: make(map[string]string),
	}
}

// DatasetLabels returns the configured labels in display order.
func (cf *File) DatasetLabels() []string {
	labels := make([]string, len(cf.Datasets))
	for i, ds := range cf.Datasets {
		labels[i] = ds.Label
	}
	return labels
}

// ResolveDataset finds the dataset a user meant. Labels and titles match
// case-insensitively; otherwise the query must fuzzy-match exactly one
// label.
func (cf *File) ResolveDataset(query string) (Dataset, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Dataset{}, ErrNoDataset
	}

	fold := cases.Fold()
	fq := fold.String(q)
	for _, ds := range cf.Datasets {
		if fold.String(ds.Label) == fq || fold.String(ds.Title) == fq {
			return ds, nil
		}
	}

	matches := fuzzy.Find(q, cf.DatasetLabels())
	if len(matches) == 0 {
		return Dataset{}, fmt.Errorf("%w: %q (choose from %s)",
			ErrUnknownDataset, q, strings.Join(cf.DatasetLabels(), ", "))
	}
	if len(matches) > 1 {
		candidates := make([]string, len(matches))
		for i, m := range matches {
			candidates[i] = m.Str
		}
		return Dataset{}, fmt.Errorf("%w: %q matches %s",
			ErrAmbiguousDataset, q, strings.Join(candidates, ", "))
	}
	return cf.Datasets[matches[0].Index], nil
}
