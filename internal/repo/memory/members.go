package memory

import (
	"context"
	"sync"
	"time"

	"github.com/eperpus/membership/internal/domain/member"
	"github.com/eperpus/membership/internal/security"
)

// MembersRepo is the in-memory mirror of the postgres repo, used by
// handler tests. The mutex makes the email-uniqueness check atomic,
// matching what the DB constraint guarantees in production.
type MembersRepo struct {
	mu    sync.RWMutex
	items map[string]member.Member
}

func NewMembersRepo() *MembersRepo {
	return &MembersRepo{
		items: make(map[string]member.Member),
	}
}

func (r *MembersRepo) Create(ctx context.Context, m member.Member) (member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == m.Email {
			return member.Member{}, member.ErrEmailTaken
		}
	}

	r.items[m.ID] = m

	return m, nil
}

func (r *MembersRepo) GetByEmail(ctx context.Context, email string) (member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.items {
		if m.Email == email {
			return m, nil
		}
	}

	return member.Member{}, member.ErrNotFound
}

func (r *MembersRepo) GetByID(ctx context.Context, id string) (member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[id]

	if !ok {
		return member.Member{}, member.ErrNotFound
	}

	return m, nil
}

func (r *MembersRepo) UpdateProfile(ctx context.Context, id string, req member.UpdateProfileRequest) (member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[id]

	if !ok {
		return member.Member{}, member.ErrNotFound
	}

	if req.Phone != nil {
		m.Phone = *req.Phone
	}
	if req.Address != nil {
		m.Address = *req.Address
	}
	if req.Type != nil {
		m.Type = *req.Type
	}
	m.UpdatedAt = time.Now().UTC()

	r.items[id] = m

	return m, nil
}

func (r *MembersRepo) UpdatePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[id]

	if !ok {
		return member.ErrNotFound
	}

	if security.CheckPassword(m.PasswordHash, oldPassword) != nil {
		return member.ErrWrongPassword
	}

	hash, err := security.HashPassword(newPassword)

	if err != nil {
		return err
	}

	m.PasswordHash = hash
	m.UpdatedAt = time.Now().UTC()
	r.items[id] = m

	return nil
}
