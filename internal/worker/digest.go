package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eperpus/membership/internal/domain/loan"
	"github.com/eperpus/membership/internal/notifications"
	"github.com/eperpus/membership/internal/observability"
	"github.com/eperpus/membership/internal/reminder"
	"github.com/eperpus/membership/internal/repo/postgres"
)

type DueLoanSource interface {
	ListDueWithin(ctx context.Context, asOf time.Time, days int) ([]postgres.DueLoan, error)
}

// Deduper is the redis SET NX wrapper. A true result means this process
// won the key and should send; false means another replica already did.
type Deduper interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type DigestConfig struct {
	DueSoonDays int
	// Keys live slightly less than a day so a digest can go out again
	// the next morning even if the sweep time drifts.
	DedupeTTL time.Duration
}

type Digest struct {
	cfg      DigestConfig
	source   DueLoanSource
	notifier notifications.Notifier
	dedupe   Deduper
	prom     *observability.Prom
	log      *slog.Logger
}

func NewDigest(cfg DigestConfig, source DueLoanSource, notifier notifications.Notifier, dedupe Deduper, prom *observability.Prom, log *slog.Logger) *Digest {
	if cfg.DueSoonDays <= 0 {
		cfg.DueSoonDays = reminder.DueSoonWindowDays
	}

	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 20 * time.Hour
	}

	return &Digest{
		cfg:      cfg,
		source:   source,
		notifier: notifier,
		dedupe:   dedupe,
		prom:     prom,
		log:      log,
	}
}

// Sweep pulls every open loan that is overdue or inside the due-soon
// window, groups the rows per member and sends each member at most one
// digest. Send failures are logged and skipped so one broken mailbox
// cannot stall the rest of the run.
func (d *Digest) Sweep(ctx context.Context) error {
	start := time.Now()

	due, err := d.source.ListDueWithin(ctx, start, d.cfg.DueSoonDays)

	if err != nil {
		if d.prom != nil {
			d.prom.DigestSweepErrors.Inc()
		}
		return fmt.Errorf("list due loans: %w", err)
	}

	sent := 0

	for _, g := range groupByMember(due) {
		alert := reminder.Classify(start, g.loans)

		if alert == nil {
			continue
		}

		key := dedupeKey(g.memberID, start)

		if d.dedupe != nil {
			won, err := d.dedupe.AcquireOnce(ctx, key, d.cfg.DedupeTTL)

			if err != nil {
				d.log.WarnContext(ctx, "digest dedupe check failed, sending anyway", "member_id", g.memberID, "err", err)
			} else if !won {
				continue
			}
		}

		err := d.notifier.SendReminderDigest(ctx, notifications.SendReminderDigestInput{
			MemberID: g.memberID,
			Email:    g.email,
			Name:     g.name,
			Alert:    *alert,
		})

		if err != nil {
			d.log.ErrorContext(ctx, "digest send failed", "member_id", g.memberID, "err", err)
			continue
		}

		if d.prom != nil {
			d.prom.DigestsSent.WithLabelValues(string(alert.Severity)).Inc()
		}
		sent++
	}

	if d.prom != nil {
		d.prom.DigestSweepDuration.Observe(time.Since(start).Seconds())
	}

	d.log.InfoContext(ctx, "digest sweep complete",
		"due_loans", len(due),
		"digests_sent", sent,
		"took_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

type memberGroup struct {
	memberID string
	email    string
	name     string
	loans    []loan.Loan
}

// groupByMember keeps first-seen member order, and within a member the
// source row order, so digests are stable run to run.
func groupByMember(due []postgres.DueLoan) []memberGroup {
	byID := make(map[string]int)
	groups := make([]memberGroup, 0)

	for _, d := range due {
		idx, ok := byID[d.Loan.MemberID]

		if !ok {
			idx = len(groups)
			byID[d.Loan.MemberID] = idx
			groups = append(groups, memberGroup{
				memberID: d.Loan.MemberID,
				email:    d.MemberEmail,
				name:     d.MemberName,
			})
		}

		groups[idx].loans = append(groups[idx].loans, d.Loan)
	}

	return groups
}

func dedupeKey(memberID string, day time.Time) string {
	return "reminder:digest:" + memberID + ":" + day.UTC().Format("2006-01-02")
}
