package attendance

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"classroll/internal/model"
)

// Repository persists attendance marks in Postgres or SQLite.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a repo.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes mark in a single statement keyed by the
// (student_id, attendance_date, attendance_time) unique constraint. On
// conflict the stored row keeps its id and only status and marked_at change.
// The returned mark carries the id actually stored.
func (r *Repository) Upsert(ctx context.Context, mark model.AttendanceMark) (model.AttendanceMark, error) {
	var id string
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`
		INSERT INTO attendance (id, student_id, attendance_date, attendance_time, status, marked_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, attendance_date, attendance_time)
		DO UPDATE SET status = excluded.status, marked_at = excluded.marked_at
		RETURNING id
	`), mark.ID, mark.StudentID, mark.Date, mark.Time, string(mark.Status), mark.MarkedAt)
	if err != nil {
		return model.AttendanceMark{}, model.StoreFailure("upsert attendance", err)
	}
	mark.ID = id
	return mark, nil
}

// SummaryRow is one line of the students LEFT JOIN attendance result.
// Status and Time are NULL for students without marks on the date.
type SummaryRow struct {
	StudentID   string         `db:"student_id"`
	StudentName string         `db:"student_name"`
	Status      sql.NullString `db:"status"`
	Time        sql.NullString `db:"attendance_time"`
}

// SummaryRows returns every student of teacherID joined with their marks on
// date, ordered by student name, student id and mark time.
func (r *Repository) SummaryRows(ctx context.Context, teacherID, date string) ([]SummaryRow, error) {
	rows := []SummaryRow{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT
			s.id AS student_id,
			s.name AS student_name,
			a.status AS status,
			CAST(a.attendance_time AS TEXT) AS attendance_time
		FROM students s
		LEFT JOIN attendance a
			ON a.student_id = s.id AND a.attendance_date = ?
		WHERE s.teacher_id = ?
		ORDER BY s.name, s.id, a.attendance_time
	`), date, teacherID)
	if err != nil {
		return nil, model.StoreFailure("attendance summary", err)
	}
	return rows, nil
}

// markRow mirrors the attendance table with date and time read as text.
type markRow struct {
	ID        string       `db:"id"`
	StudentID string       `db:"student_id"`
	Date      string       `db:"attendance_date"`
	Time      string       `db:"attendance_time"`
	Status    string       `db:"status"`
	MarkedAt  sql.NullTime `db:"marked_at"`
}

// ListForStudent returns a student's marks on date in time order.
func (r *Repository) ListForStudent(ctx context.Context, studentID, date string) ([]model.AttendanceMark, error) {
	rows := []markRow{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT
			id,
			student_id,
			CAST(attendance_date AS TEXT) AS attendance_date,
			CAST(attendance_time AS TEXT) AS attendance_time,
			status,
			marked_at
		FROM attendance
		WHERE student_id = ? AND attendance_date = ?
		ORDER BY attendance_time
	`), studentID, date)
	if err != nil {
		return nil, model.StoreFailure("list student attendance", err)
	}

	marks := make([]model.AttendanceMark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, row.toMark())
	}
	return marks, nil
}

func (row markRow) toMark() model.AttendanceMark {
	m := model.AttendanceMark{
		ID:        row.ID,
		StudentID: row.StudentID,
		Date:      row.Date,
		Time:      row.Time,
		Status:    model.Status(row.Status),
		MarkedAt:  row.MarkedAt.Time,
	}
	if d, ok := model.ParseDate(row.Date); ok {
		m.Date = d
	}
	if c, ok := model.ParseClock(row.Time); ok {
		m.Time = c
	}
	return m
}
