// Package tui is the interactive dashboard.
//
// The dashboard lists the datasets next to a data table. The blank first
// entry shows the overview sheet. Selecting a dataset fetches and shows
// its rows, and "g" generates the report for it, with one status line per
// pipeline step as the steps finish.
package tui
