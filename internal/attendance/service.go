package attendance

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"classroll/internal/model"
)

// MarkInput is the client request to mark one student at a date and time.
type MarkInput struct {
	StudentID string       `json:"studentId" validate:"required"`
	Date      string       `json:"attendanceDate" validate:"required,datetime=2006-01-02"`
	Time      string       `json:"attendanceTime" validate:"required"`
	Status    model.Status `json:"status" validate:"required,oneof=present absent"`
}

// Ledger stores attendance marks.
type Ledger interface {
	Upsert(ctx context.Context, mark model.AttendanceMark) (model.AttendanceMark, error)
	SummaryRows(ctx context.Context, teacherID, date string) ([]SummaryRow, error)
	ListForStudent(ctx context.Context, studentID, date string) ([]model.AttendanceMark, error)
}

// OwnershipChecker answers whether a teacher owns a student.
type OwnershipChecker interface {
	IsOwnedBy(ctx context.Context, studentID, teacherID string) (bool, error)
}

// MarkRecorder observes successful writes. Optional.
type MarkRecorder interface {
	RecordMark(status model.Status)
}

// Service enforces ownership and upsert rules for attendance marks and
// builds daily summaries.
type Service struct {
	ledger   Ledger
	owners   OwnershipChecker
	recorder MarkRecorder
	validate *validator.Validate
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithRecorder reports every successful mark to r.
func WithRecorder(r MarkRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the marked_at time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service backed by a ledger and an ownership check.
func NewService(ledger Ledger, owners OwnershipChecker, opts ...Option) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	s := &Service{
		ledger:   ledger,
		owners:   owners,
		validate: v,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mark creates or overwrites the caller's mark for (student, date, time).
// Validation happens before any store access; ownership failures never write.
func (s *Service) Mark(ctx context.Context, teacherID string, in MarkInput) (model.AttendanceMark, error) {
	if teacherID == "" {
		return model.AttendanceMark{}, model.Invalid("teacher_id")
	}
	in, err := s.normalize(in)
	if err != nil {
		return model.AttendanceMark{}, err
	}

	owned, err := s.owners.IsOwnedBy(ctx, in.StudentID, teacherID)
	if err != nil {
		return model.AttendanceMark{}, err
	}
	if !owned {
		return model.AttendanceMark{}, model.ErrNotAuthorized
	}

	mark, err := s.ledger.Upsert(ctx, model.AttendanceMark{
		ID:        uuid.NewString(),
		StudentID: in.StudentID,
		Date:      in.Date,
		Time:      in.Time,
		Status:    in.Status,
		MarkedAt:  s.now().UTC(),
	})
	if err != nil {
		return model.AttendanceMark{}, err
	}
	if s.recorder != nil {
		s.recorder.RecordMark(mark.Status)
	}
	return mark, nil
}

// DailySummary returns one entry per student the teacher owns, ordered by
// name, each with that day's marks in time order.
func (s *Service) DailySummary(ctx context.Context, teacherID, date string) ([]model.SummaryEntry, error) {
	if teacherID == "" {
		return nil, model.Invalid("teacher_id")
	}
	day, ok := model.ParseDate(date)
	if !ok {
		return nil, model.Invalid("date")
	}

	rows, err := s.ledger.SummaryRows(ctx, teacherID, day)
	if err != nil {
		return nil, err
	}
	return buildSummary(rows), nil
}

// StudentMarks returns one owned student's marks for date.
func (s *Service) StudentMarks(ctx context.Context, teacherID, studentID, date string) ([]model.AttendanceMark, error) {
	if teacherID == "" {
		return nil, model.Invalid("teacher_id")
	}
	day, ok := model.ParseDate(date)
	if !ok {
		return nil, model.Invalid("date")
	}

	owned, err := s.owners.IsOwnedBy(ctx, studentID, teacherID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, model.ErrNotAuthorized
	}
	return s.ledger.ListForStudent(ctx, studentID, day)
}

func (s *Service) normalize(in MarkInput) (MarkInput, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Date = strings.TrimSpace(in.Date)
	in.Status = model.Status(strings.TrimSpace(string(in.Status)))

	var fields []string
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return in, model.Invalid("body")
		}
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}

	if in.Time != "" {
		if clock, ok := model.ParseClock(in.Time); ok {
			in.Time = clock
		} else {
			fields = append(fields, "attendanceTime")
		}
	}
	if len(fields) > 0 {
		return in, model.Invalid(fields...)
	}

	return in, nil
}

// buildSummary folds the ordered join rows into one entry per student.
// Rows of a student are contiguous because the query orders by student id
// right after name.
func buildSummary(rows []SummaryRow) []model.SummaryEntry {
	summary := []model.SummaryEntry{}
	for _, row := range rows {
		n := len(summary)
		if n == 0 || summary[n-1].StudentID != row.StudentID {
			summary = append(summary, model.SummaryEntry{
				StudentID:         row.StudentID,
				StudentName:       row.StudentName,
				AttendanceRecords: []model.AttendanceRecord{},
			})
			n++
		}
		// NULL status: the student has no mark on this date
		if !row.Status.Valid {
			continue
		}
		clock := row.Time.String
		if c, ok := model.ParseClock(clock); ok {
			clock = c
		}
		summary[n-1].AttendanceRecords = append(summary[n-1].AttendanceRecords, model.AttendanceRecord{
			Status: model.Status(row.Status.String),
			Time:   clock,
		})
	}
	return summary
}
