package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emre/registrar/internal/app/models"
	"github.com/emre/registrar/internal/app/repositories"
	"github.com/emre/registrar/internal/app/sequence"
	"github.com/emre/registrar/internal/pkg/apperrors"
)

func newTestService() (StudentService, *repositories.StudentMemoryStore) {
	store := repositories.NewStudentMemoryStore()
	return NewStudentService(store, sequence.NewAllocator(store)), store
}

func sampleStudent() *models.Student {
	return &models.Student{
		FirstName:               "Ana",
		LastName:                "Li",
		IdentifyNumber:          "X1",
		Email:                   "ana@x.com",
		UniversityAdmissionYear: 2024,
		BirthCity:               "Lima",
		School:                  "Eng",
		Program:                 "CS",
		FreshmanOrTransfer:      models.EnrollmentFreshman,
	}
}

func TestCreateStudentAssignsID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	student := sampleStudent()
	require.NoError(t, svc.CreateStudent(ctx, student))
	require.Equal(t, int64(1), student.ID)

	second := sampleStudent()
	require.NoError(t, svc.CreateStudent(ctx, second))
	require.Equal(t, int64(2), second.ID)

	students, err := svc.ListStudents(ctx, repositories.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 2)
}

func TestUpdateStudent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	student := sampleStudent()
	require.NoError(t, svc.CreateStudent(ctx, student))

	t.Run("replaces fields and keeps the id", func(t *testing.T) {
		student.Program = "Math"
		require.NoError(t, svc.UpdateStudent(ctx, student))

		students, err := svc.ListStudents(ctx, repositories.StudentFilter{})
		require.NoError(t, err)
		require.Len(t, students, 1)
		require.Equal(t, student.ID, students[0].ID)
		require.Equal(t, "Math", students[0].Program)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		missing := sampleStudent()
		missing.ID = 99
		require.ErrorIs(t, svc.UpdateStudent(ctx, missing), apperrors.ErrStudentNotFound)
	})
}

func TestDeleteStudent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	student := sampleStudent()
	require.NoError(t, svc.CreateStudent(ctx, student))
	require.NoError(t, svc.DeleteStudent(ctx, student.ID))

	t.Run("record is gone", func(t *testing.T) {
		students, err := svc.ListStudents(ctx, repositories.StudentFilter{})
		require.NoError(t, err)
		require.Empty(t, students)
	})

	t.Run("repeat delete is not found", func(t *testing.T) {
		require.ErrorIs(t, svc.DeleteStudent(ctx, student.ID), apperrors.ErrStudentNotFound)
	})

	t.Run("update after delete is not found", func(t *testing.T) {
		require.ErrorIs(t, svc.UpdateStudent(ctx, student), apperrors.ErrStudentNotFound)
	})

	t.Run("spent id is not reassigned", func(t *testing.T) {
		next := sampleStudent()
		require.NoError(t, svc.CreateStudent(ctx, next))
		require.Equal(t, int64(2), next.ID)
	})
}

func TestStoreFailuresSurfaceAsUnavailable(t *testing.T) {
	ctx := context.Background()
	store := failingStore{}
	svc := NewStudentService(store, sequence.NewAllocator(store))

	_, err := svc.ListStudents(ctx, repositories.StudentFilter{})
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	require.ErrorIs(t, svc.CreateStudent(ctx, sampleStudent()), apperrors.ErrStoreUnavailable)

	student := sampleStudent()
	student.ID = 1
	require.ErrorIs(t, svc.UpdateStudent(ctx, student), apperrors.ErrStoreUnavailable)
	require.ErrorIs(t, svc.DeleteStudent(ctx, 1), apperrors.ErrStoreUnavailable)
}

var errStoreDown = errors.New("connection refused")

// failingStore simulates a store whose backend is unreachable.
type failingStore struct{}

func (failingStore) FindAll(ctx context.Context, filter repositories.StudentFilter) ([]*models.Student, error) {
	return nil, errStoreDown
}

func (failingStore) Insert(ctx context.Context, student *models.Student) error {
	return errStoreDown
}

func (failingStore) Update(ctx context.Context, student *models.Student) error {
	return errStoreDown
}

func (failingStore) Delete(ctx context.Context, id int64) error {
	return errStoreDown
}

func (failingStore) NextID(ctx context.Context) (int64, error) {
	return 0, errStoreDown
}

func TestListStudentsFilter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	ana := sampleStudent()
	require.NoError(t, svc.CreateStudent(ctx, ana))
	bo := sampleStudent()
	bo.Program = "Math"
	bo.UniversityAdmissionYear = 2023
	require.NoError(t, svc.CreateStudent(ctx, bo))

	students, err := svc.ListStudents(ctx, repositories.StudentFilter{Program: "Math"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, bo.ID, students[0].ID)

	students, err = svc.ListStudents(ctx, repositories.StudentFilter{AdmissionYear: 2024})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, ana.ID, students[0].ID)
}
