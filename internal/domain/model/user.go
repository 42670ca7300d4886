package model

// Role is a user's application role.
type Role string

// Supported roles.
const (
	RoleStudent Role = "student"
	RoleSchool  Role = "school"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleSchool || r == RoleAdmin
}

// CanManageStudents reports whether the role may act on behalf of students.
func (r Role) CanManageStudents() bool {
	return r == RoleSchool || r == RoleAdmin
}

// EducationLevel is the optional self-declared education level of a user.
type EducationLevel string

// Education levels.
const (
	EducationClass10  EducationLevel = "class_10"
	EducationClass12  EducationLevel = "class_12"
	EducationGraduate EducationLevel = "graduate"
)

// Valid reports whether l is a known education level.
func (l EducationLevel) Valid() bool {
	return l == EducationClass10 || l == EducationClass12 || l == EducationGraduate
}

// User is a person known to the system. Optional fields are nil when the
// user never provided them; absence contributes no signal to matching.
type User struct {
	ID             string          `json:"id"`
	Name           *string         `json:"name,omitempty"`
	Email          *string         `json:"email,omitempty"`
	Role           Role            `json:"role"`
	SchoolName     *string         `json:"schoolName,omitempty"`
	EducationLevel *EducationLevel `json:"educationLevel,omitempty"`
	Interests      []string        `json:"interests,omitempty"`
}

// DisplayName returns the name or empty string.
func (u User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}

// EmailAddress returns the email or empty string.
func (u User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
