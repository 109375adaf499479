package gate

import (
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the application-level role carried on a profile
type UserRole = string

const (
	// RoleApplicant is the default role for self-registered accounts
	RoleApplicant UserRole = "applicant"
	// RoleReviewer can evaluate submissions
	RoleReviewer UserRole = "reviewer"
	// RoleAdmin manages the system
	RoleAdmin UserRole = "admin"
)

// AuthUser is the principal issued by the identity provider. It is owned by
// the provider; the application only reads it.
type AuthUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
}

// IsEmailConfirmed reports whether the provider has confirmed ownership of
// the account's email.
func (u *AuthUser) IsEmailConfirmed() bool {
	return u != nil && u.EmailConfirmedAt != nil
}

// MetadataString returns a string value from the provider user metadata.
func (u *AuthUser) MetadataString(key string) string {
	if u == nil || u.UserMetadata == nil {
		return ""
	}

	if raw, ok := u.UserMetadata[key]; ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}

	return ""
}

// RawSession is the provider-issued session as delivered by the session
// fetch and the auth-change stream. The provider persists the underlying
// token; the core never stores it.
type RawSession struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	User         *AuthUser  `json:"user,omitempty"`
}

// Profile is the application-owned record extending a provider identity
// with role and display attributes
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AuthUserID    string     `bun:"auth_user_id,notnull,unique" json:"auth_user_id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FullName      string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	Affiliation   string     `bun:"affiliation" json:"affiliation,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	IsVerified    bool       `bun:"is_verified" json:"is_verified,omitempty"`
	LastLoginAt   *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// ProfileFromAuthUser builds the application profile for a verified provider
// user, carrying over the registration metadata. The profile id is derived
// deterministically from the email so retries stay idempotent.
func ProfileFromAuthUser(u *AuthUser) *Profile {
	if u == nil {
		return nil
	}

	record := &Profile{
		AuthUserID:  u.ID,
		Email:       u.Email,
		FullName:    u.MetadataString("full_name"),
		Affiliation: u.MetadataString("affiliation"),
		Role:        RoleApplicant,
		IsVerified:  u.IsEmailConfirmed(),
	}

	if id, err := hashid.NewUUID(u.Email); err == nil {
		record.ID = id
	}

	return record
}
