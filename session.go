package gate

import (
	"fmt"
)

// Session is the read-only snapshot the store hands to consumers. Only the
// store mutates session state; everyone else observes copies.
type Session struct {
	// User is the provider principal, absent when signed out.
	User *AuthUser

	// Profile is the application record, absent until fetched. It is never
	// populated while IsEmailVerified is false.
	Profile *Profile

	// IsEmailVerified is derived from the provider user's confirmation
	// timestamp on every transition.
	IsEmailVerified bool

	// Loading is true only during the initial session resolution. It never
	// becomes true again, including across later auth transitions.
	Loading bool
}

// IsAuthenticated reports whether both the provider user and the application
// profile are present.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Profile != nil
}

// Role returns the profile role, or the empty string when no profile is
// loaded.
func (s Session) Role() UserRole {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

func (s Session) String() string {
	userID := "<nil>"
	if s.User != nil {
		userID = s.User.ID
	}

	profileID := "<nil>"
	if s.Profile != nil {
		profileID = s.Profile.ID.String()
	}

	return fmt.Sprintf(
		"user=%s profile=%s verified=%t loading=%t",
		userID,
		profileID,
		s.IsEmailVerified,
		s.Loading,
	)
}
