package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/eperpus/membership/internal/domain/loan"
)

type LoansRepo struct {
	mu    sync.RWMutex
	items map[string]loan.Loan
}

func NewLoansRepo() *LoansRepo {
	return &LoansRepo{
		items: make(map[string]loan.Loan),
	}
}

// Add seeds a loan row, standing in for the circulation system.
func (r *LoansRepo) Add(l loan.Loan) {
	r.mu.Lock()
	r.items[l.ID] = l
	r.mu.Unlock()
}

func (r *LoansRepo) ListByMember(ctx context.Context, memberID string) ([]loan.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]loan.Loan, 0)

	for _, l := range r.items {
		if l.MemberID == memberID {
			out = append(out, l)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})

	return out, nil
}
