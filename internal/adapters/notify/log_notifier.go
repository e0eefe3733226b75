package notify

import (
	"context"
	"log"

	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

var _ services.Notifier = LogNotifier{}

// LogNotifier is used when realtime delivery is disabled.
type LogNotifier struct{}

func (LogNotifier) NotifyUser(ctx context.Context, userID string, n services.Notification) error {
	log.Printf("[NOTIFY] %s -> %s: %s", n.Type, userID, n.Message)
	return nil
}
