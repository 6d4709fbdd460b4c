package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eperpus/membership/internal/domain/loan"
	"github.com/eperpus/membership/internal/notifications"
	"github.com/eperpus/membership/internal/repo/postgres"
	"github.com/eperpus/membership/internal/worker"
)

type fakeDueSource struct {
	rows []postgres.DueLoan
	err  error
}

func (f *fakeDueSource) ListDueWithin(ctx context.Context, asOf time.Time, days int) ([]postgres.DueLoan, error) {
	return f.rows, f.err
}

type fakeNotifier struct {
	sent   []notifications.SendReminderDigestInput
	failOn map[string]bool
}

func (f *fakeNotifier) SendReminderDigest(ctx context.Context, in notifications.SendReminderDigestInput) error {
	if f.failOn[in.MemberID] {
		return errors.New("mailbox unreachable")
	}
	f.sent = append(f.sent, in)
	return nil
}

type fakeDeduper struct {
	lost map[string]bool
	keys []string
	err  error
}

func (f *fakeDeduper) AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return false, f.err
	}
	return !f.lost[key], nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dueRow(memberID, email, loanID string, dueIn int) postgres.DueLoan {
	return postgres.DueLoan{
		Loan: loan.Loan{
			ID:        loanID,
			MemberID:  memberID,
			BookTitle: "Buku " + loanID,
			DueDate:   time.Now().UTC().AddDate(0, 0, dueIn),
			Status:    "borrowed",
		},
		MemberEmail: email,
		MemberName:  "Member " + memberID,
	}
}

func TestSweepSendsOneDigestPerMember(t *testing.T) {
	source := &fakeDueSource{rows: []postgres.DueLoan{
		dueRow("m1", "m1@kampus.ac.id", "l1", 2),
		dueRow("m2", "m2@kampus.ac.id", "l2", -3),
		dueRow("m1", "m1@kampus.ac.id", "l3", 5),
	}}
	notifier := &fakeNotifier{}
	dedupe := &fakeDeduper{}

	d := worker.NewDigest(worker.DigestConfig{}, source, notifier, dedupe, nil, quietLogger())

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(notifier.sent) != 2 {
		t.Fatalf("sent %d digests, want 2 (one per member)", len(notifier.sent))
	}

	// members surface in first-seen order
	if notifier.sent[0].MemberID != "m1" || notifier.sent[1].MemberID != "m2" {
		t.Fatalf("unexpected member order: %s, %s", notifier.sent[0].MemberID, notifier.sent[1].MemberID)
	}

	// m1 has both loans in its digest and no overdue rows, so due-soon severity
	if notifier.sent[0].Alert.Total != 2 {
		t.Fatalf("m1 digest total = %d, want 2", notifier.sent[0].Alert.Total)
	}
	if string(notifier.sent[0].Alert.Severity) != "success" {
		t.Fatalf("m1 severity = %q, want success", notifier.sent[0].Alert.Severity)
	}

	// m2's single overdue loan drives the error severity
	if string(notifier.sent[1].Alert.Severity) != "error" {
		t.Fatalf("m2 severity = %q, want error", notifier.sent[1].Alert.Severity)
	}
}

func TestSweepSkipsMembersAnotherReplicaTook(t *testing.T) {
	source := &fakeDueSource{rows: []postgres.DueLoan{
		dueRow("m1", "m1@kampus.ac.id", "l1", 1),
		dueRow("m2", "m2@kampus.ac.id", "l2", 1),
	}}
	notifier := &fakeNotifier{}

	day := time.Now().UTC().Format("2006-01-02")
	dedupe := &fakeDeduper{lost: map[string]bool{
		"reminder:digest:m1:" + day: true,
	}}

	d := worker.NewDigest(worker.DigestConfig{}, source, notifier, dedupe, nil, quietLogger())

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0].MemberID != "m2" {
		t.Fatalf("sent = %+v, want only m2", notifier.sent)
	}
}

func TestSweepSendsWhenDedupeIsDown(t *testing.T) {
	source := &fakeDueSource{rows: []postgres.DueLoan{
		dueRow("m1", "m1@kampus.ac.id", "l1", 1),
	}}
	notifier := &fakeNotifier{}
	dedupe := &fakeDeduper{err: errors.New("redis timeout")}

	d := worker.NewDigest(worker.DigestConfig{}, source, notifier, dedupe, nil, quietLogger())

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	// a broken dedupe store degrades to at-least-once, not to silence
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d digests, want 1", len(notifier.sent))
	}
}

func TestSweepContinuesPastSendFailures(t *testing.T) {
	source := &fakeDueSource{rows: []postgres.DueLoan{
		dueRow("m1", "m1@kampus.ac.id", "l1", 1),
		dueRow("m2", "m2@kampus.ac.id", "l2", 1),
		dueRow("m3", "m3@kampus.ac.id", "l3", 1),
	}}
	notifier := &fakeNotifier{failOn: map[string]bool{"m2": true}}
	dedupe := &fakeDeduper{}

	d := worker.NewDigest(worker.DigestConfig{}, source, notifier, dedupe, nil, quietLogger())

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(notifier.sent) != 2 {
		t.Fatalf("sent %d digests, want 2 (m2 skipped)", len(notifier.sent))
	}
	if notifier.sent[0].MemberID != "m1" || notifier.sent[1].MemberID != "m3" {
		t.Fatalf("unexpected recipients: %+v", notifier.sent)
	}
}

func TestSweepPropagatesSourceError(t *testing.T) {
	source := &fakeDueSource{err: errors.New("db down")}

	d := worker.NewDigest(worker.DigestConfig{}, source, &fakeNotifier{}, &fakeDeduper{}, nil, quietLogger())

	if err := d.Sweep(context.Background()); err == nil {
		t.Fatal("expected an error when the loan query fails")
	}
}
