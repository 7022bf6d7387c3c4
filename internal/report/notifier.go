package report

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers a rendered report to a group.
type Notifier interface {
	Notify(ctx context.Context, groupID, report string) error
}

// LogNotifier writes reports to the log. It stands in until a chat
// delivery channel is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) Notifier {
	return &LogNotifier{log: log.Named("report.notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, groupID, report string) error {
	n.log.Info("daily report", zap.String("group_id", groupID), zap.String("report", report))
	return nil
}
