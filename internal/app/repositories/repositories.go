package repositories

import (
	"context"
	"errors"

	"github.com/emre/registrar/internal/app/models"
)

// Student store error types
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrDuplicateID     = errors.New("student with this id already exists")
)

// StudentFilter narrows a FindAll call. Zero values mean no filtering.
type StudentFilter struct {
	Program       string
	AdmissionYear int
}

// StudentStore is the persistence contract the record lifecycle is
// built on. An insert or update of a single record is all-or-nothing;
// no cross-record transactions are assumed.
type StudentStore interface {
	// FindAll returns every stored record matching the filter, ordered by id.
	FindAll(ctx context.Context, filter StudentFilter) ([]*models.Student, error)

	// Insert persists a record under the id it carries. Returns
	// ErrDuplicateID when that id is already assigned.
	Insert(ctx context.Context, student *models.Student) error

	// Update replaces the record addressed by student.ID in place.
	// Returns ErrStudentNotFound when no record has that id.
	Update(ctx context.Context, student *models.Student) error

	// Delete removes the record addressed by id permanently.
	// Returns ErrStudentNotFound when no record has that id.
	Delete(ctx context.Context, id int64) error

	// NextID derives the next candidate identifier from the stored
	// records: one greater than the highest id ever observed.
	NextID(ctx context.Context) (int64, error)
}
