package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"classroll/internal/model"
)

// Repository persists students. Every read and write is scoped by the
// owning teacher.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a repo.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a student owned by teacherID.
func (r *Repository) Create(ctx context.Context, teacherID, name string) (model.Student, error) {
	st := model.Student{
		ID:        uuid.NewString(),
		TeacherID: teacherID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO students (id, teacher_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`), st.ID, st.TeacherID, st.Name, st.CreatedAt)
	if err != nil {
		return model.Student{}, model.StoreFailure("create student", err)
	}
	return st, nil
}

// ListByTeacher returns the teacher's students ordered by name.
func (r *Repository) ListByTeacher(ctx context.Context, teacherID string) ([]model.Student, error) {
	students := []model.Student{}
	err := r.db.SelectContext(ctx, &students, r.db.Rebind(`
		SELECT id, teacher_id, name, created_at
		FROM students
		WHERE teacher_id = ?
		ORDER BY name, id
	`), teacherID)
	if err != nil {
		return nil, model.StoreFailure("list students", err)
	}
	return students, nil
}

// FindOwned returns the student with id when teacherID owns it, nil otherwise.
func (r *Repository) FindOwned(ctx context.Context, id, teacherID string) (*model.Student, error) {
	if !validID(id) {
		return nil, nil
	}
	var st model.Student
	err := r.db.GetContext(ctx, &st, r.db.Rebind(`
		SELECT id, teacher_id, name, created_at
		FROM students
		WHERE id = ? AND teacher_id = ?
	`), id, teacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, model.StoreFailure("find student", err)
	}
	return &st, nil
}

// IsOwnedBy is a single primary-key lookup filtered by owner. A student that
// does not exist and one owned by someone else are indistinguishable.
func (r *Repository) IsOwnedBy(ctx context.Context, studentID, teacherID string) (bool, error) {
	if !validID(studentID) {
		return false, nil
	}
	var owned bool
	err := r.db.GetContext(ctx, &owned, r.db.Rebind(`
		SELECT EXISTS (SELECT 1 FROM students WHERE id = ? AND teacher_id = ?)
	`), studentID, teacherID)
	if err != nil {
		return false, model.StoreFailure("check student owner", err)
	}
	return owned, nil
}

// Delete removes an owned student; its attendance marks go with it via the
// foreign key cascade. It reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id, teacherID string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM students WHERE id = ? AND teacher_id = ?
	`), id, teacherID)
	if err != nil {
		return false, model.StoreFailure("delete student", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, model.StoreFailure("delete student", err)
	}
	return n > 0, nil
}

// ids are UUIDs; anything else cannot match a row and would make Postgres
// reject the query instead of returning "not found".
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
