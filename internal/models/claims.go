package models

import "github.com/golang-jwt/jwt/v5"

// PrincipalKind tags which identity table a principal lives in.
type PrincipalKind string

const (
	PrincipalUser     PrincipalKind = "user"
	PrincipalEmployee PrincipalKind = "employee"
)

func (k PrincipalKind) Valid() bool {
	return k == PrincipalUser || k == PrincipalEmployee
}

// PrincipalClaims are the access token claims. The kind decides which table
// the subject id refers to, so resolution never guesses.
type PrincipalClaims struct {
	jwt.RegisteredClaims
	PrincipalID  uint          `json:"pid"`
	Kind         PrincipalKind `json:"kind"`
	Email        string        `json:"email"`
	TokenVersion int           `json:"token_version"`
}

// Principal is the identity attached to an authenticated request. Role and
// Status are empty for users.
type Principal struct {
	ID           uint          `json:"id"`
	Kind         PrincipalKind `json:"kind"`
	Email        string        `json:"email"`
	DisplayName  string        `json:"display_name"`
	Role         RoleName      `json:"role,omitempty"`
	Status       StatusName    `json:"status,omitempty"`
	TokenVersion int           `json:"-"`
}

func (p *Principal) IsEmployee() bool { return p.Kind == PrincipalEmployee }

func (p *Principal) IsUser() bool { return p.Kind == PrincipalUser }

// PrincipalFromUser builds the identity for a user account.
func PrincipalFromUser(u *User) *Principal {
	return &Principal{
		ID:           u.ID,
		Kind:         PrincipalUser,
		Email:        u.Email,
		DisplayName:  u.DisplayName(),
		TokenVersion: u.TokenVersion,
	}
}

// PrincipalFromEmployee expects Role and Status to be preloaded.
func PrincipalFromEmployee(e *Employee) *Principal {
	return &Principal{
		ID:           e.ID,
		Kind:         PrincipalEmployee,
		Email:        e.Email,
		DisplayName:  e.DisplayName(),
		Role:         e.Role.Name,
		Status:       e.Status.Name,
		TokenVersion: e.TokenVersion,
	}
}
