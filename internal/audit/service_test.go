package audit_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/audit"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/permission"
)

func TestAudit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Suite")
}

// Mock repository for testing
type mockAuditRepository struct {
	entries    []audit.Entry
	listLimits []int
}

func (m *mockAuditRepository) Append(e *audit.Entry) error {
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, *e)
	return nil
}

func (m *mockAuditRepository) List(limit int) ([]audit.Entry, error) {
	m.listLimits = append(m.listLimits, limit)
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

var _ = Describe("AuditService", func() {
	var (
		service *audit.Service
		repo    *mockAuditRepository
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = &mockAuditRepository{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = audit.NewService(repo, logger)
		ctx = context.Background()
	})

	Describe("Record", func() {
		It("should snapshot the target as JSON", func() {
			target := map[string]any{"id": 42, "email": "ana@shiftwise.dev"}

			err := service.Record(ctx, audit.ActionUserDeleted, 1, "Root Admin", target)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.entries).To(HaveLen(1))
			Expect(repo.entries[0].Action).To(Equal(audit.ActionUserDeleted))
			Expect(repo.entries[0].ActorName).To(Equal("Root Admin"))
			Expect(repo.entries[0].Target).To(ContainSubstring(`"email":"ana@shiftwise.dev"`))
			Expect(repo.entries[0].PerformedAt).ToNot(BeZero())
		})
	})

	Describe("List", func() {
		It("should be admin only", func() {
			manager := &auth.Principal{ID: 2, Role: permission.RoleManager}

			_, err := service.List(ctx, manager, 10)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeWrongRole))
		})

		It("should clamp a missing or oversized limit", func() {
			admin := &auth.Principal{ID: 1, Role: permission.RoleAccountAdmin, Perms: permission.AdminResolution()}

			_, err := service.List(ctx, admin, 0)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.List(ctx, admin, 100000)
			Expect(err).ToNot(HaveOccurred())

			Expect(repo.listLimits).To(Equal([]int{200, 200}))
		})
	})
})
