// internal/domain/models/subject.go
package models

// Methods a Subject can be resolved by.
const (
	MethodAccount   = "account"
	MethodPassword  = "password"
	MethodAssertion = "assertion"
)

// Subject is the resolved caller of a core operation. It is never persisted.
type Subject struct {
	Account       string `json:"account"`
	Role          Role   `json:"role"`
	Authenticated bool   `json:"authenticated"`
	// Provisional is set when the subject was synthesized for an account
	// missing from the roster (legacy lookup mode).
	Provisional bool   `json:"provisional,omitempty"`
	Method      string `json:"method,omitempty"`
}

// Anonymous is the unauthenticated subject.
func Anonymous() Subject {
	return Subject{Role: RoleStudent}
}
