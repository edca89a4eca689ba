package models

import "time"

// Roles a user can hold. Stored uppercase everywhere.
const (
	RoleCustomer = "CUSTOMER"
	RoleTech     = "TECH"
	RoleAdmin    = "ADMIN"
)

func ValidRole(r string) bool {
	switch r {
	case RoleCustomer, RoleTech, RoleAdmin:
		return true
	}
	return false
}

// IsAgent reports whether the role may see internal notes, assign
// tickets and view the full ticket list.
func IsAgent(role string) bool {
	return role == RoleTech || role == RoleAdmin
}

type User struct {
	ID        string    `json:"userId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	Confirmed bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName falls back to the email address when no name is on record.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// Technician is the trimmed shape returned by GET /api/technicians
// for the assignment dropdown.
type Technician struct {
	ID    string `json:"userId"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
