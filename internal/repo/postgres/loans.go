package postgres

import (
	"context"
	"time"

	"github.com/eperpus/membership/internal/domain/loan"
	"github.com/eperpus/membership/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoansRepo reads the circulation system's loans table. This service
// never writes to it.
type LoansRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewLoansRepo(pool *pgxpool.Pool, prom *observability.Prom) *LoansRepo {
	return &LoansRepo{pool: pool, prom: prom}
}

func (repo *LoansRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

// ListByMember returns the member's borrowing history, oldest due date
// first. An empty history is a nil-error empty slice; a store failure is
// an error. Callers must be able to tell the two apart.
func (repo *LoansRepo) ListByMember(ctx context.Context, memberID string) (loans []loan.Loan, err error) {
	var rows pgx.Rows

	err = repo.observe("loans.list_by_member", func() error {
		rows, err = repo.pool.Query(ctx, `
	SELECT id, member_id, book_title, borrow_date, due_date, status
	FROM loans
	WHERE member_id = $1
	ORDER BY due_date ASC, id ASC
	`, memberID)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	loans = make([]loan.Loan, 0)

	for rows.Next() {
		var l loan.Loan

		e := rows.Scan(&l.ID, &l.MemberID, &l.BookTitle, &l.BorrowDate, &l.DueDate, &l.Status)

		if e != nil {
			err = e
			return
		}
		loans = append(loans, l)
	}

	e := rows.Err()

	if e != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues("loans.list_by_member", "rows_err").Inc()
		}
		err = e
		return
	}

	return
}

// DueLoan is a loan joined with the contact details the digest needs.
type DueLoan struct {
	Loan        loan.Loan
	MemberEmail string
	MemberName  string
}

// dueHorizon is the exclusive upper bound for the digest query: the
// start of the UTC calendar day after asOf+days. The classifier counts
// whole civil days, so a loan due late on the last day still qualifies.
func dueHorizon(asOf time.Time, days int) time.Time {
	d := asOf.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days+1)
}

// ListDueWithin returns open loans that are overdue or due within the
// given number of whole calendar days as of asOf, for the reminder
// digest sweep.
func (repo *LoansRepo) ListDueWithin(ctx context.Context, asOf time.Time, days int) (due []DueLoan, err error) {
	horizon := dueHorizon(asOf, days)

	var rows pgx.Rows

	err = repo.observe("loans.list_due_within", func() error {
		rows, err = repo.pool.Query(ctx, `
	SELECT l.id, l.member_id, l.book_title, l.borrow_date, l.due_date, l.status,
	       m.email, m.name
	FROM loans l
	JOIN members m ON m.id = l.member_id
	WHERE l.status = 'borrowed'
	  AND l.due_date < $1
	  AND m.status = 'active'
	ORDER BY l.member_id, l.due_date ASC
	`, horizon)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	due = make([]DueLoan, 0)

	for rows.Next() {
		var d DueLoan

		e := rows.Scan(
			&d.Loan.ID, &d.Loan.MemberID, &d.Loan.BookTitle,
			&d.Loan.BorrowDate, &d.Loan.DueDate, &d.Loan.Status,
			&d.MemberEmail, &d.MemberName,
		)

		if e != nil {
			err = e
			return
		}
		due = append(due, d)
	}

	if e := rows.Err(); e != nil {
		err = e
		return
	}

	return
}
