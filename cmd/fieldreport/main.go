// Package main provides the entry point for the fieldreport CLI.
//
// fieldreport turns survey spreadsheets into narrative Word and PDF
// reports and delivers them by email and Telegram.
//
// Usage:
//
//	fieldreport generate "One Year"
//	fieldreport generate --all --no-send
//	fieldreport dashboard
//
// See --help for all available options.
package main

func main() {
	Execute()
}
