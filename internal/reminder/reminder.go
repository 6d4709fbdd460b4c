package reminder

import (
	"fmt"
	"time"

	"github.com/eperpus/membership/internal/domain/loan"
)

type Severity string

const (
	// SeverityError flags overdue loans; it always wins over a plain reminder.
	SeverityError Severity = "error"
	// SeveritySuccess is the friendly "due soon" reminder.
	SeveritySuccess Severity = "success"
)

// DueSoonWindowDays is how far ahead a due date still triggers a reminder.
const DueSoonWindowDays = 7

// maxItemized caps the per-book list; the rest collapses into More.
const maxItemized = 3

type Item struct {
	LoanID    string    `json:"loanId"`
	BookTitle string    `json:"bookTitle"`
	DueDate   time.Time `json:"dueDate"`
	// Days overdue for an error alert, days left for a success alert.
	Days int `json:"days"`
}

type Alert struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Detail   string   `json:"detail"`
	// First three loans of the selected set, in source order.
	Items []Item `json:"items"`
	// How many further loans were not itemized.
	More  int `json:"more"`
	Total int `json:"total"`
}

// DaysUntil returns the whole-day difference between today and due on the
// UTC calendar. Negative means overdue. Time-of-day is discarded so a loan
// due later today still counts as "due today".
func DaysUntil(today, due time.Time) int {
	t := civil(today)
	d := civil(due)

	return int(d.Sub(t).Hours() / 24)
}

func civil(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Classify partitions a member's loans into overdue and due-soon sets and
// picks the single alert to show. Overdue wins outright: due-soon loans are
// not mentioned at all while anything is late. Returns nil when there is
// nothing to say.
func Classify(today time.Time, loans []loan.Loan) *Alert {
	var overdue []Item
	var dueSoon []Item

	for _, l := range loans {
		diff := DaysUntil(today, l.DueDate)

		switch {
		case diff < 0:
			overdue = append(overdue, Item{
				LoanID:    l.ID,
				BookTitle: l.BookTitle,
				DueDate:   l.DueDate,
				Days:      -diff,
			})
		case diff <= DueSoonWindowDays:
			dueSoon = append(dueSoon, Item{
				LoanID:    l.ID,
				BookTitle: l.BookTitle,
				DueDate:   l.DueDate,
				Days:      diff,
			})
		}
	}

	if len(overdue) > 0 {
		return buildOverdueAlert(overdue)
	}

	if len(dueSoon) > 0 {
		return buildDueSoonAlert(dueSoon)
	}

	return nil
}

func buildOverdueAlert(items []Item) *Alert {
	a := &Alert{
		Severity: SeverityError,
		Title:    "OVERDUE BOOKS",
		Total:    len(items),
	}

	if len(items) == 1 {
		book := items[0]
		a.Message = fmt.Sprintf(
			"%q is %d %s overdue. Please return it to the library as soon as possible to avoid fines.",
			book.BookTitle, book.Days, daysWord(book.Days),
		)
		a.Detail = "Due: " + formatDate(book.DueDate)
	} else {
		worst := maxDays(items)
		a.Message = fmt.Sprintf(
			"You have %d overdue books, the latest by %d %s. Please return them all as soon as possible to avoid fines.",
			len(items), worst, daysWord(worst),
		)
		a.Detail = fmt.Sprintf("%d books need to be returned immediately", len(items))
	}

	a.Items, a.More = itemize(items)

	return a
}

func buildDueSoonAlert(items []Item) *Alert {
	a := &Alert{
		Severity: SeveritySuccess,
		Title:    "RETURN REMINDER",
		Total:    len(items),
	}

	if len(items) == 1 {
		book := items[0]
		a.Message = fmt.Sprintf(
			"%q is due %s. Please return it on time to avoid fines.",
			book.BookTitle, dueInWords(book.Days),
		)
		a.Detail = "Due: " + formatDate(book.DueDate)
	} else {
		soonest := minDays(items)
		a.Message = fmt.Sprintf(
			"You have %d books due soon, the first %s. Please make sure to return them all on time.",
			len(items), dueInWords(soonest),
		)
		a.Detail = fmt.Sprintf("%d books need to be returned soon", len(items))
	}

	a.Items, a.More = itemize(items)

	return a
}

func itemize(items []Item) ([]Item, int) {
	if len(items) <= maxItemized {
		return items, 0
	}

	return items[:maxItemized], len(items) - maxItemized
}

func maxDays(items []Item) int {
	out := items[0].Days
	for _, it := range items[1:] {
		if it.Days > out {
			out = it.Days
		}
	}
	return out
}

func minDays(items []Item) int {
	out := items[0].Days
	for _, it := range items[1:] {
		if it.Days < out {
			out = it.Days
		}
	}
	return out
}

func dueInWords(daysLeft int) string {
	if daysLeft == 0 {
		return "today"
	}

	return fmt.Sprintf("in %d %s", daysLeft, daysWord(daysLeft))
}

func daysWord(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}

// dd-mm-yyyy on the UTC calendar, matching the membership card layout.
func formatDate(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%02d-%02d-%04d", u.Day(), int(u.Month()), u.Year())
}
