package models

// EnrollmentType is how a student entered the university.
type EnrollmentType string

const (
	EnrollmentFreshman EnrollmentType = "Freshman"
	EnrollmentTransfer EnrollmentType = "Transfer"
)

// Student defines the student model based on the 'students' table
type Student struct {
	ID                      int64          `json:"id" db:"id" example:"1"` // Unique identifier, assigned by the sequence allocator
	FirstName               string         `json:"firstName" db:"first_name" validate:"required" example:"Ana"`
	LastName                string         `json:"lastName" db:"last_name" validate:"required" example:"Li"`
	IdentifyNumber          string         `json:"identifyNumber" db:"identify_number" validate:"required" example:"X1"`
	Email                   string         `json:"email" db:"email" validate:"required,email" example:"ana@x.com"`
	UniversityAdmissionYear int            `json:"universityAdmissionYear" db:"university_admission_year" validate:"required" example:"2024"`
	BirthDate               Date           `json:"birthDate" db:"birth_date" validate:"required" example:"2002-05-01"`
	BirthCity               string         `json:"birthCity" db:"birth_city" validate:"required" example:"Lima"`
	School                  string         `json:"school" db:"school" validate:"required" example:"Eng"`
	Program                 string         `json:"program" db:"program" validate:"required" example:"CS"`
	FreshmanOrTransfer      EnrollmentType `json:"freshmanOrTransfer" db:"freshman_or_transfer" validate:"required,oneof=Freshman Transfer" example:"Freshman"`

	// Optional enrollment attributes
	Voucher          *string `json:"voucher,omitempty" db:"voucher"`
	Grant            *string `json:"grant,omitempty" db:"grant"`
	Sociality        *string `json:"sociality,omitempty" db:"sociality"`
	LearningLanguage *string `json:"learningLanguage,omitempty" db:"learning_language"`
	MobilitySemester *string `json:"mobilitySemester,omitempty" db:"mobility_semester"`
	Agent            *string `json:"agent,omitempty" db:"agent"`
}
