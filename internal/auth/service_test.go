package auth_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/permission"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

// Mock repository for testing
type mockAuthRepository struct {
	byEmail map[string]*auth.UserRecord
	byID    map[int64]*auth.UserRecord
	nextID  int64
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		byEmail: make(map[string]*auth.UserRecord),
		byID:    make(map[int64]*auth.UserRecord),
		nextID:  1,
	}
}

func (m *mockAuthRepository) add(record *auth.UserRecord) *auth.UserRecord {
	if record.ID == 0 {
		record.ID = m.nextID
		m.nextID++
	}
	m.byEmail[record.Email] = record
	m.byID[record.ID] = record
	return record
}

func (m *mockAuthRepository) GetByEmail(email string) (*auth.UserRecord, error) {
	record, ok := m.byEmail[email]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *mockAuthRepository) GetByID(userID int64) (*auth.UserRecord, error) {
	record, ok := m.byID[userID]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *mockAuthRepository) Create(record *auth.UserRecord) error {
	m.add(record)
	return nil
}

type mockResolver struct {
	resolutions map[string]permission.Resolution
}

func (m *mockResolver) Resolve(role string) (permission.Resolution, error) {
	if role == permission.RoleAccountAdmin {
		return permission.AdminResolution(), nil
	}
	return m.resolutions[role], nil
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		repo     *mockAuthRepository
		resolver *mockResolver
	)

	BeforeEach(func() {
		repo = newMockAuthRepository()
		resolver = &mockResolver{resolutions: make(map[string]permission.Resolution)}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokenGen := auth.NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		service = auth.NewService(repo, resolver, tokenGen, logger)
	})

	Describe("Authenticate", func() {
		Context("with an unknown email", func() {
			It("should create an active agent account on first login", func() {
				tokens, err := service.Authenticate(auth.LoginDTO{Email: "New@shiftwise.dev"})

				Expect(err).ToNot(HaveOccurred())
				Expect(tokens.AccessToken).ToNot(BeEmpty())
				Expect(tokens.RefreshToken).ToNot(BeEmpty())

				record, err := repo.GetByEmail("new@shiftwise.dev")
				Expect(err).ToNot(HaveOccurred())
				Expect(record.Role).To(Equal(permission.RoleAgent))
				Expect(record.Active).To(BeTrue())
				Expect(record.Name).To(Equal("new"))
			})
		})

		Context("with an inactive account", func() {
			It("should refuse the login", func() {
				repo.add(&auth.UserRecord{Email: "ana@shiftwise.dev", Active: false})

				_, err := service.Authenticate(auth.LoginDTO{Email: "ana@shiftwise.dev"})

				Expect(err).To(Equal(internal.ErrUserInactive))
			})
		})

		Context("when the record has a password hash", func() {
			var record *auth.UserRecord

			BeforeEach(func() {
				hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
				Expect(err).ToNot(HaveOccurred())
				record = repo.add(&auth.UserRecord{
					Email:        "ana@shiftwise.dev",
					PasswordHash: string(hash),
					Active:       true,
				})
			})

			It("should accept the matching password", func() {
				tokens, err := service.Authenticate(auth.LoginDTO{
					Email:    record.Email,
					Password: "correct-horse",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(tokens.AccessToken).ToNot(BeEmpty())
			})

			It("should reject a wrong password", func() {
				_, err := service.Authenticate(auth.LoginDTO{
					Email:    record.Email,
					Password: "wrong",
				})

				Expect(err).To(Equal(internal.ErrInvalidCredentials))
			})
		})

		Context("when the record has no password hash", func() {
			It("should skip password verification", func() {
				repo.add(&auth.UserRecord{Email: "ana@shiftwise.dev", Active: true})

				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "ana@shiftwise.dev",
					Password: "anything",
				})

				Expect(err).ToNot(HaveOccurred())
			})
		})
	})

	Describe("RefreshTokens", func() {
		It("should issue fresh tokens for a valid refresh token", func() {
			repo.add(&auth.UserRecord{Email: "ana@shiftwise.dev", Active: true})
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "ana@shiftwise.dev"})
			Expect(err).ToNot(HaveOccurred())

			refreshed, err := service.RefreshTokens(tokens.RefreshToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.AccessToken).ToNot(BeEmpty())
		})

		It("should reject garbage tokens", func() {
			_, err := service.RefreshTokens("not-a-token")

			Expect(err).To(Equal(internal.ErrInvalidToken))
		})

		It("should refuse a token for an account deactivated since issuance", func() {
			record := repo.add(&auth.UserRecord{Email: "ana@shiftwise.dev", Active: true})
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "ana@shiftwise.dev"})
			Expect(err).ToNot(HaveOccurred())

			record.Active = false

			_, err = service.RefreshTokens(tokens.RefreshToken)
			Expect(err).To(Equal(internal.ErrUserInactive))
		})
	})

	Describe("GetPrincipal", func() {
		It("should resolve permissions fresh from the resolver", func() {
			record := repo.add(&auth.UserRecord{
				Email:      "liam@shiftwise.dev",
				Role:       permission.RoleTeamLeader,
				Department: "support",
				Active:     true,
			})
			resolver.resolutions[permission.RoleTeamLeader] = permission.Resolution{
				Role: permission.RoleTeamLeader,
				Set:  permission.Set{ManageShifts: true},
			}

			principal, err := service.GetPrincipal(record.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(principal.Can(permission.FlagManageShifts)).To(BeTrue())
			Expect(principal.Can(permission.FlagPublishShifts)).To(BeFalse())
			Expect(principal.Department).To(Equal("support"))
		})

		It("should refuse an inactive account", func() {
			record := repo.add(&auth.UserRecord{Email: "ana@shiftwise.dev", Active: false})

			_, err := service.GetPrincipal(record.ID)

			Expect(err).To(Equal(internal.ErrUserInactive))
		})

		It("should grant everything to an account_admin", func() {
			record := repo.add(&auth.UserRecord{
				Email:  "root@shiftwise.dev",
				Role:   permission.RoleAccountAdmin,
				Active: true,
			})

			principal, err := service.GetPrincipal(record.ID)

			Expect(err).ToNot(HaveOccurred())
			for _, flag := range permission.AllFlags() {
				Expect(principal.Can(flag)).To(BeTrue())
			}
		})
	})

	Describe("ValidateAccessToken", func() {
		It("should round-trip the user id through the claims", func() {
			record := repo.add(&auth.UserRecord{Email: "ana@shiftwise.dev", Active: true})
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "ana@shiftwise.dev"})
			Expect(err).ToNot(HaveOccurred())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(claims.UserID).To(Equal("1"))
			Expect(claims.Email).To(Equal(record.Email))
		})

		It("should reject a token signed with the wrong secret", func() {
			other := auth.NewJWTTokenGenerator("different", "different", 15*time.Minute, time.Hour)
			token, err := other.GenerateAccessToken("1", "ana@shiftwise.dev")
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ValidateAccessToken(token)

			Expect(err).To(Equal(internal.ErrInvalidToken))
		})
	})
})
