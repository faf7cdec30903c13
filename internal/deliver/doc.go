// Package deliver distributes finished reports.
//
// Email sends one message with attachments to a fixed recipient list over
// SMTP with STARTTLS. Telegram uploads one document per call to a chat or
// channel through the Bot API. Channels are independent: callers decide
// what a failure of one means for the other.
package deliver
