package domain

// Role constants define the allowed user roles. Self-registration always
// produces a staff account; admin is assigned administratively.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)
