package loan

import (
	"errors"
	"time"
)

// Loan is a single borrowing record. Rows are written by the
// circulation system; this service only ever reads them.
type Loan struct {
	ID         string    `json:"id"`
	MemberID   string    `json:"memberId"`
	BookTitle  string    `json:"bookTitle"`
	BorrowDate time.Time `json:"borrowDate"`
	DueDate    time.Time `json:"dueDate"`
	Status     string    `json:"status"`
}

var ErrNotFound = errors.New("loan not found")
