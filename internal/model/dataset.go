package model

import "strings"

// Dataset is one selectable reporting period.
type Dataset struct {
	// Label is what the user picks, e.g. "One Year".
	Label string `yaml:"label" json:"label"`

	// Title names the report and its artifacts, e.g. "One Year Report".
	Title string `yaml:"title" json:"title"`

	// URL is the CSV export of the sheet.
	URL string `yaml:"url" json:"url"`
}

// FileStem returns the base file name used for the dataset's artifacts.
// Path separators are replaced so the title cannot escape the output
// directory.
func (d Dataset) FileStem() string {
	stem := strings.TrimSpace(d.Title)
	if stem == "" {
		stem = strings.TrimSpace(d.Label)
	}
	return strings.NewReplacer("/", "-", "\\", "-").Replace(stem)
}
