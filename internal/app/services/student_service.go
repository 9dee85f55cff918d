package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/emre/registrar/internal/app/models"
	"github.com/emre/registrar/internal/app/repositories"
	"github.com/emre/registrar/internal/app/sequence"
	"github.com/emre/registrar/internal/pkg/apperrors"
)

// StudentService handles the student record lifecycle
type StudentService interface {
	ListStudents(ctx context.Context, filter repositories.StudentFilter) ([]*models.Student, error)
	CreateStudent(ctx context.Context, student *models.Student) error
	UpdateStudent(ctx context.Context, student *models.Student) error
	DeleteStudent(ctx context.Context, id int64) error
}

type studentService struct {
	store     repositories.StudentStore
	allocator *sequence.Allocator
}

// NewStudentService creates a new student service instance
func NewStudentService(store repositories.StudentStore, allocator *sequence.Allocator) StudentService {
	return &studentService{
		store:     store,
		allocator: allocator,
	}
}

// ListStudents retrieves all stored records matching the filter
func (s *studentService) ListStudents(ctx context.Context, filter repositories.StudentFilter) ([]*models.Student, error) {
	students, err := s.store.FindAll(ctx, filter)
	if err != nil {
		return nil, storeFailure("error retrieving students", err)
	}
	return students, nil
}

// CreateStudent assigns the next identifier to an already validated
// record and persists it. On success student.ID carries the new id.
func (s *studentService) CreateStudent(ctx context.Context, student *models.Student) error {
	if err := s.allocator.CreateWithNextID(ctx, student); err != nil {
		if errors.Is(err, sequence.ErrExhausted) {
			return fmt.Errorf("error creating student: %w", err)
		}
		return storeFailure("error creating student", err)
	}
	return nil
}

// UpdateStudent replaces the record addressed by student.ID in place.
// The id itself is never replaced.
func (s *studentService) UpdateStudent(ctx context.Context, student *models.Student) error {
	err := s.store.Update(ctx, student)
	if err != nil {
		if errors.Is(err, repositories.ErrStudentNotFound) {
			return apperrors.ErrStudentNotFound
		}
		return storeFailure("error updating student", err)
	}
	return nil
}

// DeleteStudent removes the record addressed by id. Deletion is
// permanent; the id is never reassigned.
func (s *studentService) DeleteStudent(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrStudentNotFound) {
			return apperrors.ErrStudentNotFound
		}
		return storeFailure("error deleting student", err)
	}
	return nil
}

// storeFailure marks an unexpected store error as ErrStoreUnavailable
// so the transport layer can answer with a retryable status.
func storeFailure(message string, err error) error {
	return apperrors.NewCustomError(apperrors.ErrStoreUnavailable,
		fmt.Sprintf("%s: %v", message, err))
}
