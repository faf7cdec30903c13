package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dcxsea/fieldreport/internal/model"
)

// DefaultInstructions ask for a formal report laid out in the markup the
// document renderer understands.
const DefaultInstructions = `Please give a formal report based on the provided data.

Write the report in this layout, using "---" on its own line for a page break,
"#" to "####" for headings, "* " for bullet items, "|" separated rows for
tables (first row is the header) and **bold** or *italic* for emphasis.

Table of Contents
List each numbered section title followed by dot leaders and a page number,
for example "1. Introduction........................ 1".
---
Abstract
---
1. Introduction
1.1 Demographic Profile: describe the respondents, age and gender.
1.2 Land Ownership and Cultivation: describe their overall land.
1.3 Horticulture Practices: describe crops, land and the yield of each year.
1.4 Satisfaction Rates: the overall satisfaction.
2. Data Visualization
The sheet shows differences before and after the project. Compare how much
land, planting frequency and yield increased or decreased after the project
in a table, and give the percentage of each crop planted.
3. Discussion and Results
Overall results.
4. Conclusion and Recommendations
Conclude everything and give recommendations.

Describe each part in detail.`

// BuildPrompt returns instructions followed by the records as indented
// JSON. Empty instructions select DefaultInstructions.
func BuildPrompt(instructions string, records []model.Record) (string, error) {
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultInstructions
	}
	if records == nil {
		records = []model.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(instructions, "\n"))
	b.WriteString("\n\n")
	b.Write(data)
	return b.String(), nil
}
