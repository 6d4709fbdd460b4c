package notifications

import (
	"context"

	"github.com/eperpus/membership/internal/reminder"
)

type SendReminderDigestInput struct {
	MemberID string
	Email    string
	Name     string
	Alert    reminder.Alert
}

type Notifier interface {
	SendReminderDigest(ctx context.Context, input SendReminderDigestInput) error
}
