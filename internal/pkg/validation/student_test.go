package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emre/registrar/internal/app/models"
	"github.com/emre/registrar/internal/pkg/helpers"
)

func validStudent() *models.Student {
	birthDate, _ := ParseBirthDate("2002-05-01")
	return &models.Student{
		FirstName:               "Ana",
		LastName:                "Li",
		IdentifyNumber:          "X1",
		Email:                   "ana@x.com",
		UniversityAdmissionYear: 2024,
		BirthDate:               birthDate,
		BirthCity:               "Lima",
		School:                  "Eng",
		Program:                 "CS",
		FreshmanOrTransfer:      models.EnrollmentFreshman,
	}
}

func TestStudentValid(t *testing.T) {
	require.Nil(t, Student(validStudent()))
}

func TestStudentOptionalFieldsNotRequired(t *testing.T) {
	student := validStudent()
	student.Voucher = nil
	student.Grant = nil
	student.Sociality = nil
	student.LearningLanguage = nil
	student.MobilitySemester = nil
	student.Agent = nil
	require.Nil(t, Student(student))

	student.Voucher = helpers.StringPtr("merit-2024")
	student.Agent = helpers.StringPtr("partner-office")
	require.Nil(t, Student(student))
}

func TestStudentMissingRequiredFields(t *testing.T) {
	violations := Student(&models.Student{})
	require.Len(t, violations, 10)

	byField := make(map[string]string, len(violations))
	for _, v := range violations {
		byField[v.Field] = v.Message
	}

	for _, field := range []string{
		"firstName", "lastName", "identifyNumber", "email",
		"universityAdmissionYear", "birthDate", "birthCity",
		"school", "program", "freshmanOrTransfer",
	} {
		require.Contains(t, byField, field)
		require.Equal(t, field+" is required", byField[field])
	}
}

func TestStudentCollectsAllViolations(t *testing.T) {
	student := validStudent()
	student.Email = "not-an-address"
	student.FreshmanOrTransfer = "Exchange"
	student.Program = ""

	violations := Student(student)
	require.Len(t, violations, 3)

	byField := make(map[string]string, len(violations))
	for _, v := range violations {
		byField[v.Field] = v.Message
	}
	require.Equal(t, "email must be a valid email address", byField["email"])
	require.Equal(t, "freshmanOrTransfer must be one of: Freshman, Transfer", byField["freshmanOrTransfer"])
	require.Equal(t, "program is required", byField["program"])
}

func TestDecodeStudent(t *testing.T) {
	t.Run("valid payload decodes without violations", func(t *testing.T) {
		student, violations, err := DecodeStudent([]byte(`{
			"firstName": "Ana", "lastName": "Li", "identifyNumber": "X1",
			"email": "ana@x.com", "universityAdmissionYear": 2024,
			"birthDate": "2002-05-01", "birthCity": "Lima",
			"school": "Eng", "program": "CS", "freshmanOrTransfer": "Freshman"
		}`))
		require.NoError(t, err)
		require.Empty(t, violations)
		require.Equal(t, "2002-05-01", student.BirthDate.Format(models.DateFormat))
	})

	t.Run("malformed birth date joins the field-error list", func(t *testing.T) {
		_, violations, err := DecodeStudent([]byte(`{
			"firstName": "Ana", "lastName": "Li", "identifyNumber": "X1",
			"email": "not-an-address", "universityAdmissionYear": 2024,
			"birthDate": "01/05/2002", "birthCity": "Lima",
			"school": "Eng", "program": "CS", "freshmanOrTransfer": "Freshman"
		}`))
		require.NoError(t, err)
		require.Len(t, violations, 2)

		byField := make(map[string]string, len(violations))
		for _, v := range violations {
			byField[v.Field] = v.Message
		}
		require.Contains(t, byField["birthDate"], models.DateFormat)
		require.Equal(t, "email must be a valid email address", byField["email"])
	})

	t.Run("malformed date alone is a single birthDate violation", func(t *testing.T) {
		_, violations, err := DecodeStudent([]byte(`{
			"firstName": "Ana", "lastName": "Li", "identifyNumber": "X1",
			"email": "ana@x.com", "universityAdmissionYear": 2024,
			"birthDate": "yesterday", "birthCity": "Lima",
			"school": "Eng", "program": "CS", "freshmanOrTransfer": "Freshman"
		}`))
		require.NoError(t, err)
		require.Len(t, violations, 1)
		require.Equal(t, "birthDate", violations[0].Field)
	})

	t.Run("undecodable payload is an error", func(t *testing.T) {
		_, _, err := DecodeStudent([]byte(`{not json`))
		require.Error(t, err)
	})
}

func TestParseBirthDate(t *testing.T) {
	t.Run("accepts the wire format", func(t *testing.T) {
		d, err := ParseBirthDate("2002-05-01")
		require.NoError(t, err)
		require.Equal(t, "2002-05-01", d.Format(models.DateFormat))
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		_, err := ParseBirthDate("01/05/2002")
		require.Error(t, err)
	})
}
