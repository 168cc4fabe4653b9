package document

import "log/slog"

// LogNotifier surfaces notices through the structured logger. The CLI has
// no toast UI, so notices land on stderr alongside the rest of the logs.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(message string) {
	n.Logger.Warn("notice", "message", message)
}
