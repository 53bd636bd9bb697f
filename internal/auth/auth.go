package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shiftwise/shift-manager/internal/permission"
)

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

// Principal is the authenticated caller: user identity plus the permission
// resolution for their role, loaded fresh on every request.
type Principal struct {
	ID         int64                 `json:"id"`
	Email      string                `json:"email"`
	Name       string                `json:"name"`
	Role       string                `json:"role"`
	Department string                `json:"department"`
	Active     bool                  `json:"active"`
	Perms      permission.Resolution `json:"perms"`
}

// Can is the single permission check: the admin sentinel bypasses the stored
// map inside Resolution, so call sites never compare roles against
// account_admin themselves.
func (p *Principal) Can(f permission.Flag) bool {
	return p.Perms.Has(f)
}

func (p *Principal) IsAdmin() bool {
	return p.Role == permission.RoleAccountAdmin
}

func (p *Principal) HasRole(roles ...string) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

// UserRecord is the stored user row as the auth layer sees it.
type UserRecord struct {
	ID                 int64     `db:"id"`
	Email              string    `db:"email"`
	Name               string    `db:"name"`
	Role               string    `db:"role"`
	Department         string    `db:"department"`
	PasswordHash       string    `db:"password_hash"`
	Active             bool      `db:"active"`
	OnboardingComplete bool      `db:"onboarding_complete"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// TokenGenerator creates and validates session tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID string, email string) (token string, err error)
	GenerateRefreshToken(userID string, email string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}
