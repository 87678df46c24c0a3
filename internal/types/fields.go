package types

import "fmt"

// PersonalField names one PersonalInfo field using its JSON name.
type PersonalField string

// PersonalInfo field names.
const (
	FieldFullName PersonalField = "fullName"
	FieldJobTitle PersonalField = "jobTitle"
	FieldEmail    PersonalField = "email"
	FieldPhone    PersonalField = "phone"
	FieldAddress  PersonalField = "address"
	FieldSummary  PersonalField = "summary"
)

// ExperienceField names one editable ExperienceEntry field.
type ExperienceField string

// ExperienceEntry field names.
const (
	ExperienceCompany     ExperienceField = "company"
	ExperienceRole        ExperienceField = "role"
	ExperienceDate        ExperienceField = "date"
	ExperienceDescription ExperienceField = "description"
)

// EducationField names one editable EducationEntry field.
type EducationField string

// EducationEntry field names.
const (
	EducationSchool EducationField = "school"
	EducationDegree EducationField = "degree"
	EducationDate   EducationField = "date"
)

// UnknownFieldError is returned when a field name does not exist on the target section.
type UnknownFieldError struct {
	Section string
	Field   string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown %s field: %q", e.Section, e.Field)
}

// Set overwrites one personal field.
func (p *PersonalInfo) Set(field PersonalField, value string) error {
	switch field {
	case FieldFullName:
		p.FullName = value
	case FieldJobTitle:
		p.JobTitle = value
	case FieldEmail:
		p.Email = value
	case FieldPhone:
		p.Phone = value
	case FieldAddress:
		p.Address = value
	case FieldSummary:
		p.Summary = value
	default:
		return &UnknownFieldError{Section: "personal", Field: string(field)}
	}
	return nil
}

// Get returns the value of one personal field.
func (p PersonalInfo) Get(field PersonalField) (string, error) {
	switch field {
	case FieldFullName:
		return p.FullName, nil
	case FieldJobTitle:
		return p.JobTitle, nil
	case FieldEmail:
		return p.Email, nil
	case FieldPhone:
		return p.Phone, nil
	case FieldAddress:
		return p.Address, nil
	case FieldSummary:
		return p.Summary, nil
	default:
		return "", &UnknownFieldError{Section: "personal", Field: string(field)}
	}
}

// Set overwrites one experience field.
func (e *ExperienceEntry) Set(field ExperienceField, value string) error {
	switch field {
	case ExperienceCompany:
		e.Company = value
	case ExperienceRole:
		e.Role = value
	case ExperienceDate:
		e.Date = value
	case ExperienceDescription:
		e.Description = value
	default:
		return &UnknownFieldError{Section: "experience", Field: string(field)}
	}
	return nil
}

// Set overwrites one education field.
func (e *EducationEntry) Set(field EducationField, value string) error {
	switch field {
	case EducationSchool:
		e.School = value
	case EducationDegree:
		e.Degree = value
	case EducationDate:
		e.Date = value
	default:
		return &UnknownFieldError{Section: "education", Field: string(field)}
	}
	return nil
}

// ValidExperienceField reports whether name is an editable experience field.
func ValidExperienceField(name string) bool {
	var e ExperienceEntry
	return e.Set(ExperienceField(name), "") == nil
}

// ValidEducationField reports whether name is an editable education field.
func ValidEducationField(name string) bool {
	var e EducationEntry
	return e.Set(EducationField(name), "") == nil
}
