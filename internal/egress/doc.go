// Package egress builds the HTTP clients used for every outbound request:
// the data source, the logo download, the language model API and the
// Telegram Bot API.
//
// Requests go out directly by default. A SOCKS5 proxy address, or an
// embedded Tor daemon started through tornago, routes them through a
// proxy instead. Static headers from the settings file are added to every
// request.
package egress
