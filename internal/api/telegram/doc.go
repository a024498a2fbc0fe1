// Package telegram is a small client for the subset of the Telegram Bot API
// the controller uses: getMe, getUpdates and sendMessage.
//
// Every call runs under its own deadline, failures are classified with the
// sentinel errors below, and the bot token is scrubbed from error text
// before it can reach a log line.
package telegram
