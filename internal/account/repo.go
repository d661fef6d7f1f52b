package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"classroll/internal/model"
	"classroll/internal/store"
)

const teacherColumns = `id, name, email, password_hash, is_verified, verification_token, created_at`

// Repository persists teacher accounts.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a repo.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a teacher. A duplicate email yields model.ErrEmailTaken.
func (r *Repository) Create(ctx context.Context, t model.Teacher) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO teachers (id, name, email, password_hash, is_verified, verification_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), t.ID, t.Name, t.Email, t.PasswordHash, t.IsVerified, t.VerificationToken, t.CreatedAt)
	if store.IsUniqueViolation(err) {
		return model.ErrEmailTaken
	}
	if err != nil {
		return model.StoreFailure("create teacher", err)
	}
	return nil
}

// FindByEmail returns nil when no teacher has that email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	return r.findOne(ctx, "find teacher by email", `SELECT `+teacherColumns+` FROM teachers WHERE email = ?`, email)
}

// FindByID returns nil when the teacher does not exist.
func (r *Repository) FindByID(ctx context.Context, id string) (*model.Teacher, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.findOne(ctx, "find teacher", `SELECT `+teacherColumns+` FROM teachers WHERE id = ?`, id)
}

// FindByVerificationToken returns nil for unknown tokens. Tokens stay on the
// row after verification so a repeated link resolves to the verified account.
func (r *Repository) FindByVerificationToken(ctx context.Context, token string) (*model.Teacher, error) {
	return r.findOne(ctx, "find teacher by token", `SELECT `+teacherColumns+` FROM teachers WHERE verification_token = ?`, token)
}

// MarkVerified flags the account verified.
func (r *Repository) MarkVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE teachers SET is_verified = ? WHERE id = ?
	`), true, id)
	if err != nil {
		return model.StoreFailure("verify teacher", err)
	}
	return nil
}

func (r *Repository) findOne(ctx context.Context, op, query string, arg any) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.GetContext(ctx, &t, r.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, model.StoreFailure(op, err)
	}
	return &t, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
