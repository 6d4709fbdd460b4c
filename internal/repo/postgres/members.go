package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/eperpus/membership/internal/domain/member"
	"github.com/eperpus/membership/internal/observability"
	"github.com/eperpus/membership/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MembersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewMembersRepo(pool *pgxpool.Pool, prom *observability.Prom) *MembersRepo {
	return &MembersRepo{pool: pool, prom: prom}
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func (repo *MembersRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

const memberColumns = `id, uid, name, email, phone, address, type, status, password_hash, created_at, updated_at`

func scanMember(row pgx.Row) (member.Member, error) {
	var m member.Member
	err := row.Scan(
		&m.ID,
		&m.UID,
		&m.Name,
		&m.Email,
		&m.Phone,
		&m.Address,
		&m.Type,
		&m.Status,
		&m.PasswordHash,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

// Create inserts a fully-built member. Email uniqueness is the database's
// job (members_email_uniq); a racing duplicate comes back as ErrEmailTaken
// rather than anything read-then-write could promise.
func (repo *MembersRepo) Create(ctx context.Context, m member.Member) (member.Member, error) {
	err := repo.observe("members.create", func() error {
		_, e := repo.pool.Exec(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, m.ID, m.UID, m.Name, m.Email, m.Phone, m.Address, m.Type, m.Status, m.PasswordHash, m.CreatedAt, m.UpdatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "members_email_uniq" {
			return member.Member{}, member.ErrEmailTaken
		}
		return member.Member{}, err
	}

	return m, nil
}

func (repo *MembersRepo) GetByEmail(ctx context.Context, email string) (member.Member, error) {
	var m member.Member

	err := repo.observe("members.get_by_email", func() error {
		var e error
		m, e = scanMember(repo.pool.QueryRow(ctx,
			`SELECT `+memberColumns+` FROM members WHERE email = $1`, email))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member.Member{}, member.ErrNotFound
		}

		return member.Member{}, err
	}
	return m, nil
}

func (repo *MembersRepo) GetByID(ctx context.Context, id string) (member.Member, error) {
	var m member.Member

	err := repo.observe("members.get_by_id", func() error {
		var e error
		m, e = scanMember(repo.pool.QueryRow(ctx,
			`SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member.Member{}, member.ErrNotFound
		}

		return member.Member{}, err
	}
	return m, nil
}

// UpdateProfile patches only the supplied fields. Name, email and
// created_at are untouchable through this path.
func (repo *MembersRepo) UpdateProfile(ctx context.Context, id string, req member.UpdateProfileRequest) (m member.Member, err error) {
	err = repo.observe("members.update_profile", func() error {
		var e error
		m, e = scanMember(repo.pool.QueryRow(ctx, `
		UPDATE members
		SET phone      = COALESCE($2, phone),
		    address    = COALESCE($3, address),
		    type       = COALESCE($4, type),
		    updated_at = $5
		WHERE id = $1
		RETURNING `+memberColumns,
			id, req.Phone, req.Address, req.Type, time.Now().UTC()))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = member.ErrNotFound
		}
		return
	}

	return
}

// UpdatePassword verifies the old password and writes the new hash in one
// transaction, holding a row lock so a concurrent change cannot slip
// between the check and the write.
func (repo *MembersRepo) UpdatePassword(ctx context.Context, id, oldPassword, newPassword string) (err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	var currentHash string

	err = repo.observe("members.update_password.lock", func() error {
		return tx.QueryRow(ctx,
			`SELECT password_hash FROM members WHERE id = $1 FOR UPDATE`, id,
		).Scan(&currentHash)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = member.ErrNotFound
		}
		return
	}

	if security.CheckPassword(currentHash, oldPassword) != nil {
		err = member.ErrWrongPassword
		return
	}

	newHash, err := security.HashPassword(newPassword)

	if err != nil {
		return
	}

	err = repo.observe("members.update_password.write", func() error {
		_, e := tx.Exec(ctx,
			`UPDATE members SET password_hash = $2, updated_at = $3 WHERE id = $1`,
			id, newHash, time.Now().UTC(),
		)
		return e
	})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}
