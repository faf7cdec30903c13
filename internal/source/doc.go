// Package source fetches survey data from a published spreadsheet CSV
// export.
//
// The Fetcher performs a plain HTTP GET with the configured client, so the
// request goes through whatever egress the client was built with (direct,
// SOCKS5 proxy or embedded Tor). The body is capped, a leading UTF-8 byte
// order mark is removed and the rows are parsed into a model.Table.
package source
