package user

import "time"

// User is the administrative view of an account. The auth package keeps its
// own leaner record; this one carries everything the admin screens edit.
type User struct {
	ID                 int64     `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	Department         string    `json:"department"`
	Active             bool      `json:"active"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
