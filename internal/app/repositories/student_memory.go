package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/emre/registrar/internal/app/models"
)

// StudentMemoryStore is an in-memory StudentStore. It backs the demo
// mode and the unit tests; production deployments use the postgres
// store. The high-water mark is kept separately from the record map so
// a deleted id is never handed out again within the process lifetime.
type StudentMemoryStore struct {
	mu       sync.RWMutex
	students map[int64]models.Student
	lastID   int64
}

// NewStudentMemoryStore creates an empty in-memory student store
func NewStudentMemoryStore() *StudentMemoryStore {
	return &StudentMemoryStore{
		students: make(map[int64]models.Student),
	}
}

// FindAll retrieves all students matching the filter, ordered by id
func (r *StudentMemoryStore) FindAll(ctx context.Context, filter StudentFilter) ([]*models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	students := []*models.Student{}
	for _, student := range r.students {
		if filter.Program != "" && student.Program != filter.Program {
			continue
		}
		if filter.AdmissionYear != 0 && student.UniversityAdmissionYear != filter.AdmissionYear {
			continue
		}
		s := student
		students = append(students, &s)
	}

	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

// Insert persists a student under its preassigned id
func (r *StudentMemoryStore) Insert(ctx context.Context, student *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.students[student.ID]; exists || student.ID <= r.lastID {
		return ErrDuplicateID
	}

	r.students[student.ID] = *student
	r.lastID = student.ID
	return nil
}

// Update replaces the record addressed by student.ID in place
func (r *StudentMemoryStore) Update(ctx context.Context, student *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.students[student.ID]; !exists {
		return ErrStudentNotFound
	}

	r.students[student.ID] = *student
	return nil
}

// Delete removes the record addressed by id
func (r *StudentMemoryStore) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.students[id]; !exists {
		return ErrStudentNotFound
	}

	delete(r.students, id)
	return nil
}

// NextID derives the next candidate id from the high-water mark
func (r *StudentMemoryStore) NextID(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastID + 1, nil
}
