package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/emre/registrar/internal/app/models"
	"github.com/emre/registrar/internal/app/repositories"
)

// ErrExhausted means the allocator lost the insert race more times
// than allowed and gave up.
var ErrExhausted = errors.New("id allocation attempts exhausted")

// defaultMaxAttempts bounds the retry loop; each retry re-derives the
// candidate, so contention only ever pushes the id forward.
const defaultMaxAttempts = 32

// Allocator assigns unique, strictly increasing identifiers to new
// records. A candidate id is derived from the store's durable
// high-water mark and committed with a conditional insert keyed on
// that id; losing a race surfaces as a duplicate-key error and the
// allocation is retried with a fresh candidate. Allocation and
// persistence succeed or fail as a unit: no record is ever stored
// under a half-allocated id, and a failed insert reserves nothing.
type Allocator struct {
	store       repositories.StudentStore
	maxAttempts int
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithMaxAttempts overrides the retry bound.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// NewAllocator creates an allocator on top of a student store.
func NewAllocator(store repositories.StudentStore, opts ...Option) *Allocator {
	a := &Allocator{
		store:       store,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Next returns the current candidate identifier: one greater than
// every id the store has ever committed. The value is only reserved
// once an insert keyed on it commits.
func (a *Allocator) Next(ctx context.Context) (int64, error) {
	return a.store.NextID(ctx)
}

// CreateWithNextID assigns the next identifier to the student and
// persists it, retrying with a re-derived candidate when a concurrent
// creator wins the id. On success student.ID holds the assigned value.
func (a *Allocator) CreateWithNextID(ctx context.Context, student *models.Student) error {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		id, err := a.store.NextID(ctx)
		if err != nil {
			return fmt.Errorf("error deriving candidate id: %w", err)
		}

		student.ID = id
		err = a.store.Insert(ctx, student)
		if err == nil {
			return nil
		}
		if errors.Is(err, repositories.ErrDuplicateID) {
			continue
		}

		student.ID = 0
		return err
	}

	student.ID = 0
	return ErrExhausted
}
