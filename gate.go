package gate

// Decision is the outcome of an access evaluation for a protected surface.
type Decision int

const (
	// DecisionLoading means session resolution is still in flight; render
	// nothing and wait.
	DecisionLoading Decision = iota
	// DecisionRedirectToLogin means no usable identity is present.
	DecisionRedirectToLogin
	// DecisionRequireVerification means the account exists but its email has
	// not been confirmed.
	DecisionRequireVerification
	// DecisionRedirectToUnauthorized means the identity is fine but the role
	// is not allowed here.
	DecisionRedirectToUnauthorized
	// DecisionAllow grants access.
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirectToLogin:
		return "redirect_to_login"
	case DecisionRequireVerification:
		return "require_verification"
	case DecisionRedirectToUnauthorized:
		return "redirect_to_unauthorized"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Evaluate maps a session snapshot to exactly one access decision. It is a
// pure function of its inputs and the checks run in a fixed order: loading
// wins over everything, a missing user or profile reads as unauthenticated,
// an unverified email blocks next, then role membership. An empty
// allowedRoles means any role passes.
//
// A verified user whose profile has not loaded is treated as unauthenticated,
// not as a role mismatch; callers redirect to login and recover once the
// profile arrives.
func Evaluate(s Session, allowedRoles ...UserRole) Decision {
	if s.Loading {
		return DecisionLoading
	}

	if s.User == nil || s.Profile == nil {
		return DecisionRedirectToLogin
	}

	if !s.IsEmailVerified {
		return DecisionRequireVerification
	}

	if len(allowedRoles) > 0 && !roleAllowed(s.Profile.Role, allowedRoles) {
		return DecisionRedirectToUnauthorized
	}

	return DecisionAllow
}
