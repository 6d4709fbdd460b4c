package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eperpus/membership/internal/cache"
	"github.com/eperpus/membership/internal/domain/loan"
	"github.com/eperpus/membership/internal/http/handlers"
	"github.com/eperpus/membership/internal/reminder"
)

func TestRemindersEndpoint(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name         string
		loans        []loan.Loan
		wantSeverity reminder.Severity
		wantNil      bool
	}{
		{
			name: "overdue_wins",
			loans: []loan.Loan{
				{ID: "l1", BookTitle: "Bumi Manusia", DueDate: now.AddDate(0, 0, -3)},
				{ID: "l2", BookTitle: "Pulang", DueDate: now.AddDate(0, 0, 5)},
			},
			wantSeverity: reminder.SeverityError,
		},
		{
			name: "due_soon_only",
			loans: []loan.Loan{
				{ID: "l1", BookTitle: "Perahu Kertas", DueDate: now.AddDate(0, 0, 2)},
			},
			wantSeverity: reminder.SeveritySuccess,
		},
		{
			name:    "nothing_due",
			loans:   []loan.Loan{{ID: "l1", BookTitle: "Supernova", DueDate: now.AddDate(0, 0, 20)}},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeLoanReader{
				listFn: func(ctx context.Context, memberID string) ([]loan.Loan, error) {
					return tt.loans, nil
				},
			}

			h := handlers.NewRemindersHandler(repo, nil)
			r := authedRouter(http.MethodGet, "/members/me/reminders", h.Get)

			req := httptest.NewRequest(http.MethodGet, "/members/me/reminders", nil)
			req.Header.Set("Authorization", "Bearer token")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}

			var resp struct {
				Alert *reminder.Alert `json:"alert"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("bad body: %v", err)
			}

			if tt.wantNil {
				if resp.Alert != nil {
					t.Fatalf("expected null alert, got %+v", resp.Alert)
				}
				return
			}

			if resp.Alert == nil {
				t.Fatal("expected an alert, got null")
			}

			if resp.Alert.Severity != tt.wantSeverity {
				t.Fatalf("severity = %q, want %q", resp.Alert.Severity, tt.wantSeverity)
			}
		})
	}
}

func TestRemindersCacheSkipsSecondFetch(t *testing.T) {
	now := time.Now().UTC()
	calls := 0

	repo := &fakeLoanReader{
		listFn: func(ctx context.Context, memberID string) ([]loan.Loan, error) {
			calls++
			return []loan.Loan{{ID: "l1", BookTitle: "Laskar Pelangi", DueDate: now.AddDate(0, 0, 1)}}, nil
		},
	}

	h := handlers.NewRemindersHandler(repo, cache.New(time.Minute))
	r := authedRouter(http.MethodGet, "/members/me/reminders", h.Get)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/members/me/reminders", nil)
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}

	if calls != 1 {
		t.Fatalf("loan store hit %d times, want 1 (second served from cache)", calls)
	}
}
