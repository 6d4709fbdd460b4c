package db

import (
	"context"
	"errors"

	"github.com/eperpus/membership/internal/config"
	"github.com/eperpus/membership/internal/domain/member"
	"github.com/eperpus/membership/internal/repo/postgres"
	"github.com/eperpus/membership/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSeedMember creates a demo member on startup when the seed env
// vars are set. Useful for fresh local databases; a no-op otherwise.
func EnsureSeedMember(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedMemberEmail == "" || cfg.SeedMemberPassword == "" {
		return nil
	}

	// check if the member exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM members WHERE email = $1`, cfg.SeedMemberEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.SeedMemberPassword)

	if err != nil {
		return err
	}

	m := member.NewFromRegisterRequest(member.RegisterRequest{
		Name:  cfg.SeedMemberName,
		Email: cfg.SeedMemberEmail,
		Type:  member.TypeStaff,
	}, hash)

	_, err = pool.Exec(ctx,
		`INSERT INTO members (id, uid, name, email, phone, address, type, status, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
		m.ID, m.UID, m.Name, m.Email, m.Phone, m.Address, m.Type, m.Status, m.PasswordHash, m.CreatedAt, m.UpdatedAt,
	)

	// another replica may have seeded between the check and the insert
	if err != nil && postgres.IsUniqueViolation(err) {
		return nil
	}

	return err
}
