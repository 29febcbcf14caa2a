package subscriber

import "log/slog"

// LogNotifier writes notifications to the structured log. It is the default
// for headless deployments where no desktop notification channel exists.
type LogNotifier struct{}

func (LogNotifier) Notify(title, body string) {
	slog.Info("notification", "title", title, "body", body)
}
