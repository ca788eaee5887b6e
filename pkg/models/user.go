package models

// UserRole identifies the authorization level of an authenticated user
type UserRole string

const (
	// RoleAdmin can manage certificates and review fraud alerts
	RoleAdmin UserRole = "admin"
	// RoleReviewer can review and resolve fraud alerts
	RoleReviewer UserRole = "reviewer"
	// RoleIssuer can create certificates but not review alerts
	RoleIssuer UserRole = "issuer"
)

// CanReviewAlerts reports whether the role may resolve fraud alerts
func (r UserRole) CanReviewAlerts() bool {
	return r == RoleAdmin || r == RoleReviewer
}
