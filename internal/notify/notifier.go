package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/metrics"
	"github.com/innopoints/innopoints-api/internal/service"
)

// Log writes every notification to the global logger.
type Log struct{}

func (Log) Notify(_ context.Context, recipient string, kind domain.NotificationType, payload map[string]any) {
	zap.L().Info("notification",
		zap.String("recipient", recipient),
		zap.String("type", string(kind)),
		zap.Any("payload", payload),
	)
}

// Multi fans a notification out to every notifier and counts it once.
type Multi []service.Notifier

func (m Multi) Notify(ctx context.Context, recipient string, kind domain.NotificationType, payload map[string]any) {
	metrics.RecordNotification(string(kind))
	for _, n := range m {
		n.Notify(ctx, recipient, kind, payload)
	}
}

var (
	_ service.Notifier = Log{}
	_ service.Notifier = Multi{}
	_ service.Notifier = (*Hub)(nil)
)
