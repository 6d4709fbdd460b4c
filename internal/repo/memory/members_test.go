package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/eperpus/membership/internal/domain/member"
	"github.com/eperpus/membership/internal/repo/memory"
	"github.com/eperpus/membership/internal/security"
)

func newMember(t *testing.T, email, password string) member.Member {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}

	return member.NewFromRegisterRequest(member.RegisterRequest{
		Name:     "Ami Lestari",
		Email:    email,
		Password: password,
		Phone:    "0812345678",
		Address:  "Jl. Merdeka 1",
		Type:     member.TypeStudent,
	}, hash)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMembersRepo()

	first := newMember(t, "ami@kampus.ac.id", "secret-123")

	if _, err := repo.Create(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := newMember(t, "ami@kampus.ac.id", "other-secret")

	if _, err := repo.Create(ctx, second); !errors.Is(err, member.ErrEmailTaken) {
		t.Fatalf("duplicate create err = %v, want ErrEmailTaken", err)
	}

	// the original record must survive the rejected insert
	got, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("get after duplicate: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("stored member replaced: got %q, want %q", got.ID, first.ID)
	}
}

func TestLookupsReturnNotFound(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMembersRepo()

	if _, err := repo.GetByEmail(ctx, "nobody@kampus.ac.id"); !errors.Is(err, member.ErrNotFound) {
		t.Fatalf("GetByEmail err = %v, want ErrNotFound", err)
	}

	if _, err := repo.GetByID(ctx, "missing-id"); !errors.Is(err, member.ErrNotFound) {
		t.Fatalf("GetByID err = %v, want ErrNotFound", err)
	}

	if _, err := repo.UpdateProfile(ctx, "missing-id", member.UpdateProfileRequest{}); !errors.Is(err, member.ErrNotFound) {
		t.Fatalf("UpdateProfile err = %v, want ErrNotFound", err)
	}
}

func TestUpdateProfilePatchesOnlySuppliedFields(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMembersRepo()

	m := newMember(t, "ami@kampus.ac.id", "secret-123")

	if _, err := repo.Create(ctx, m); err != nil {
		t.Fatal(err)
	}

	phone := "0898765432"

	updated, err := repo.UpdateProfile(ctx, m.ID, member.UpdateProfileRequest{Phone: &phone})
	if err != nil {
		t.Fatal(err)
	}

	if updated.Phone != phone {
		t.Fatalf("phone = %q, want %q", updated.Phone, phone)
	}

	// everything not in the patch stays as registered
	if updated.Email != m.Email || updated.Name != m.Name || updated.Address != m.Address {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(m.CreatedAt) {
		t.Fatalf("createdAt moved: %v -> %v", m.CreatedAt, updated.CreatedAt)
	}
	if updated.UpdatedAt.Before(m.UpdatedAt) {
		t.Fatalf("updatedAt went backwards: %v -> %v", m.UpdatedAt, updated.UpdatedAt)
	}
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMembersRepo()

	m := newMember(t, "ami@kampus.ac.id", "old-secret-1")

	if _, err := repo.Create(ctx, m); err != nil {
		t.Fatal(err)
	}

	if err := repo.UpdatePassword(ctx, m.ID, "guess", "new-secret-1"); !errors.Is(err, member.ErrWrongPassword) {
		t.Fatalf("wrong old password err = %v, want ErrWrongPassword", err)
	}

	if err := repo.UpdatePassword(ctx, m.ID, "old-secret-1", "new-secret-1"); err != nil {
		t.Fatalf("password change: %v", err)
	}

	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}

	if security.CheckPassword(got.PasswordHash, "new-secret-1") != nil {
		t.Fatal("new password does not verify after change")
	}
	if security.CheckPassword(got.PasswordHash, "old-secret-1") == nil {
		t.Fatal("old password still verifies after change")
	}
}
