package model

import (
	"strings"
	"time"
)

// Personnel is one identity record from the directory. Records are owned by
// the directory feed; this application only reads them and copies them into
// rosters.
type Personnel struct {
	Sicil      string `json:"sicil" db:"sicil"`
	GivenName  string `json:"givenName" db:"given_name"`
	FamilyName string `json:"familyName" db:"family_name"`
	Rank       string `json:"rank" db:"rank"`
	NationalID string `json:"nationalId" db:"national_id"`
	BirthDate  string `json:"birthDate" db:"birth_date"`
	Phone      string `json:"phone" db:"phone"`
}

// FullName joins the given and family name, tolerating records where one of
// the two is empty.
func (p Personnel) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// EventDetails is the configuration of a roster-in-progress. CreatedAt stays
// zero until the event is actually started.
type EventDetails struct {
	Name      string    `json:"eventName"`
	Target    int       `json:"requiredCount"`
	CreatedAt time.Time `json:"creationDate,omitempty"`
}

// CompletedEvent is the frozen snapshot of a finished roster. Immutable once
// saved; deletable by an admin.
type CompletedEvent struct {
	ID        string      `json:"id" db:"id"`
	SavedAt   time.Time   `json:"date" db:"saved_at"`
	EventName string      `json:"eventName" db:"event_name"`
	Personnel []Personnel `json:"personnel"`
}

// Role controls access to the admin-only views.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether the role is one of the two known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an operator account. The username doubles as the identifier and is
// immutable after creation.
type User struct {
	Username string `json:"username" db:"username"`
	Password string `json:"password,omitempty" db:"password"`
	FullName string `json:"fullName" db:"full_name"`
	Role     Role   `json:"role" db:"role"`
}

// IsAdmin reports whether the user may enter the admin views.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PersonnelUsage is one statistics row: how many completed events a person
// appears in, carrying the most recently seen snapshot for display.
type PersonnelUsage struct {
	Personnel Personnel
	Count     int
}
