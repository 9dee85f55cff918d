package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/emre/registrar/internal/app/models"
	"github.com/emre/registrar/internal/db"
	"github.com/emre/registrar/internal/pkg/dberrors"
	"github.com/emre/registrar/internal/pkg/helpers"
)

const studentColumns = `id, first_name, last_name, identify_number, email,
		university_admission_year, birth_date, birth_city, school, program,
		freshman_or_transfer, voucher, grant_name, sociality, learning_language,
		mobility_semester, agent`

// StudentPostgresStore handles database operations for students
type StudentPostgresStore struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewStudentPostgresStore creates a new postgres-backed student store
func NewStudentPostgresStore(database *db.PostgresDB) *StudentPostgresStore {
	return &StudentPostgresStore{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindAll retrieves all students matching the filter, ordered by id
func (r *StudentPostgresStore) FindAll(ctx context.Context, filter StudentFilter) ([]*models.Student, error) {
	builder := r.sb.
		Select("id", "first_name", "last_name", "identify_number", "email",
			"university_admission_year", "birth_date", "birth_city", "school", "program",
			"freshman_or_transfer", "voucher", "grant_name", "sociality", "learning_language",
			"mobility_semester", "agent").
		From("students").
		OrderBy("id ASC")

	if filter.Program != "" {
		builder = builder.Where(squirrel.Eq{"program": filter.Program})
	}
	if filter.AdmissionYear != 0 {
		builder = builder.Where(squirrel.Eq{"university_admission_year": filter.AdmissionYear})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building student query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error retrieving students: %w", err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}

// Insert persists a student under its preassigned id. The insert and
// the high-water mark advance commit as one transaction, and the
// advance only succeeds when the candidate is exactly one past the
// issued range. A candidate that was issued and then deleted leaves no
// primary-key conflict behind, so the sequence row is the write that
// actually decides the race; a failed insert leaves no trace in the
// sequence and a committed id is never reissued, even after deletion.
func (r *StudentPostgresStore) Insert(ctx context.Context, student *models.Student) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
			INSERT INTO students (` + studentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`

		_, err := tx.Exec(ctx, query,
			student.ID, student.FirstName, student.LastName, student.IdentifyNumber, student.Email,
			student.UniversityAdmissionYear, student.BirthDate, student.BirthCity, student.School, student.Program,
			string(student.FreshmanOrTransfer),
			helpers.GetNullString(student.Voucher),
			helpers.GetNullString(student.Grant),
			helpers.GetNullString(student.Sociality),
			helpers.GetNullString(student.LearningLanguage),
			helpers.GetNullString(student.MobilitySemester),
			helpers.GetNullString(student.Agent),
		)
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, "students_pkey") {
				return ErrDuplicateID
			}
			return fmt.Errorf("error inserting student: %w", err)
		}

		cmdTag, err := tx.Exec(ctx,
			`UPDATE student_id_seq SET last_id = $1 WHERE last_id = $1 - 1`, student.ID)
		if err != nil {
			return fmt.Errorf("error advancing id sequence: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			// The sequence moved past the candidate since it was
			// derived, so the id may already have been issued and
			// freed again. Roll back and let the caller retry.
			return ErrDuplicateID
		}

		return nil
	})
}

// Update replaces the record addressed by student.ID in place
func (r *StudentPostgresStore) Update(ctx context.Context, student *models.Student) error {
	query := `
		UPDATE students
		SET first_name = $2, last_name = $3, identify_number = $4, email = $5,
			university_admission_year = $6, birth_date = $7, birth_city = $8,
			school = $9, program = $10, freshman_or_transfer = $11,
			voucher = $12, grant_name = $13, sociality = $14,
			learning_language = $15, mobility_semester = $16, agent = $17
		WHERE id = $1
	`

	cmdTag, err := r.db.Pool.Exec(ctx, query,
		student.ID, student.FirstName, student.LastName, student.IdentifyNumber, student.Email,
		student.UniversityAdmissionYear, student.BirthDate, student.BirthCity, student.School, student.Program,
		string(student.FreshmanOrTransfer),
		helpers.GetNullString(student.Voucher),
		helpers.GetNullString(student.Grant),
		helpers.GetNullString(student.Sociality),
		helpers.GetNullString(student.LearningLanguage),
		helpers.GetNullString(student.MobilitySemester),
		helpers.GetNullString(student.Agent),
	)
	if err != nil {
		return fmt.Errorf("error updating student: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}

	return nil
}

// Delete deletes a student by ID. Deletion never lowers the id
// sequence, so the id is gone for good.
func (r *StudentPostgresStore) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting student: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}

	return nil
}

// NextID derives the next candidate id from the durable high-water mark
func (r *StudentPostgresStore) NextID(ctx context.Context) (int64, error) {
	var lastID int64
	err := r.db.Pool.QueryRow(ctx, `SELECT last_id FROM student_id_seq`).Scan(&lastID)
	if err != nil {
		return 0, fmt.Errorf("error reading id sequence: %w", err)
	}
	return lastID + 1, nil
}

// rowScanner is satisfied by both pgx.Rows and pgx.Row
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*models.Student, error) {
	var student models.Student
	err := row.Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.IdentifyNumber,
		&student.Email,
		&student.UniversityAdmissionYear,
		&student.BirthDate,
		&student.BirthCity,
		&student.School,
		&student.Program,
		&student.FreshmanOrTransfer,
		&student.Voucher,
		&student.Grant,
		&student.Sociality,
		&student.LearningLanguage,
		&student.MobilitySemester,
		&student.Agent,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("error scanning student row: %w", err)
	}
	return &student, nil
}
