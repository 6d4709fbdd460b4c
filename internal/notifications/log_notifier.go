package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LogNotifier stands in for a real mail/SMS provider: it just writes the
// digest to the log. Env knobs below let tests and demos fake a slow or
// broken provider.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendReminderDigest(ctx context.Context, in SendReminderDigestInput) error {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	slog.Default().InfoContext(ctx, "notification.reminder_digest",
		"member_id", in.MemberID,
		"email", in.Email,
		"severity", in.Alert.Severity,
		"total", in.Alert.Total,
		"message", in.Alert.Message,
	)
	return nil
}
