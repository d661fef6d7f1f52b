package roster

import (
	"context"
	"strings"

	"classroll/internal/model"
)

// maxNameLen matches the students.name column width.
const maxNameLen = 100

// Store is the persistence the roster service needs.
type Store interface {
	Create(ctx context.Context, teacherID, name string) (model.Student, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Student, error)
	FindOwned(ctx context.Context, id, teacherID string) (*model.Student, error)
	Delete(ctx context.Context, id, teacherID string) (bool, error)
}

// Service manages a teacher's own students.
type Service struct {
	repo Store
}

// NewService creates a service backed by a repository.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Add creates a student for teacherID.
func (s *Service) Add(ctx context.Context, teacherID, name string) (model.Student, error) {
	name = strings.TrimSpace(name)
	if teacherID == "" {
		return model.Student{}, model.Invalid("teacher_id")
	}
	if name == "" || len([]rune(name)) > maxNameLen {
		return model.Student{}, model.Invalid("name")
	}
	return s.repo.Create(ctx, teacherID, name)
}

// List returns the teacher's students ordered by name.
func (s *Service) List(ctx context.Context, teacherID string) ([]model.Student, error) {
	if teacherID == "" {
		return nil, model.Invalid("teacher_id")
	}
	return s.repo.ListByTeacher(ctx, teacherID)
}

// Get returns an owned student or ErrNotAuthorized.
func (s *Service) Get(ctx context.Context, teacherID, studentID string) (model.Student, error) {
	st, err := s.repo.FindOwned(ctx, studentID, teacherID)
	if err != nil {
		return model.Student{}, err
	}
	if st == nil {
		return model.Student{}, model.ErrNotAuthorized
	}
	return *st, nil
}

// Remove deletes an owned student together with its attendance marks.
func (s *Service) Remove(ctx context.Context, teacherID, studentID string) error {
	if studentID == "" {
		return model.Invalid("studentId")
	}
	deleted, err := s.repo.Delete(ctx, studentID, teacherID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrNotAuthorized
	}
	return nil
}
