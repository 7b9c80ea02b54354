// Package notify sends operator notifications when conversions finish.
//
// New returns a Telegram Bot API notifier when notifications are enabled and
// a token and chat id are configured, and a Noop otherwise. Async wraps any
// Notifier so callers never wait on the network and delivery failures never
// affect the caller. Outcome renders the HTML message for a terminal state.
package notify
