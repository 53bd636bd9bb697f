package shift_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/core/events"
	"github.com/shiftwise/shift-manager/internal/permission"
	"github.com/shiftwise/shift-manager/internal/shift"
)

func TestShift(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Shift Suite")
}

// Mock repository for testing
type mockShiftRepository struct {
	shifts    map[int64]*shift.Shift
	templates map[int64]*shift.Template
	nextID    int64
}

func newMockShiftRepository() *mockShiftRepository {
	return &mockShiftRepository{
		shifts:    make(map[int64]*shift.Shift),
		templates: make(map[int64]*shift.Template),
		nextID:    1,
	}
}

func (m *mockShiftRepository) Create(s *shift.Shift) error {
	s.ID = m.nextID
	m.nextID++
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	copied := *s
	m.shifts[s.ID] = &copied
	return nil
}

func (m *mockShiftRepository) CreateBatch(shifts []*shift.Shift) error {
	for _, s := range shifts {
		if err := m.Create(s); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockShiftRepository) GetByID(shiftID int64) (*shift.Shift, error) {
	s, ok := m.shifts[shiftID]
	if !ok {
		return nil, internal.ErrShiftNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockShiftRepository) Update(s *shift.Shift) error {
	if _, ok := m.shifts[s.ID]; !ok {
		return internal.ErrShiftNotFound
	}
	s.UpdatedAt = time.Now()
	copied := *s
	m.shifts[s.ID] = &copied
	return nil
}

func (m *mockShiftRepository) Delete(shiftID int64) error {
	if _, ok := m.shifts[shiftID]; !ok {
		return internal.ErrShiftNotFound
	}
	delete(m.shifts, shiftID)
	return nil
}

func (m *mockShiftRepository) List(q shift.Query) ([]shift.Shift, error) {
	var out []shift.Shift
	for _, s := range m.shifts {
		if q.UserIDs != nil && !containsID(q.UserIDs, s.UserID) {
			continue
		}
		if len(q.Statuses) > 0 && !containsStatus(q.Statuses, s.Status) {
			continue
		}
		if q.DateFrom != "" && s.Date < q.DateFrom {
			continue
		}
		if q.DateTo != "" && s.Date > q.DateTo {
			continue
		}
		out = append(out, *s)
	}
	// order: date then start time, both lexical
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Date < out[i].Date ||
				(out[j].Date == out[i].Date && out[j].StartTime < out[i].StartTime) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if out == nil {
		out = []shift.Shift{}
	}
	return out, nil
}

func (m *mockShiftRepository) MarkPublished(shiftIDs []int64) (int64, error) {
	var count int64
	for _, id := range shiftIDs {
		s, ok := m.shifts[id]
		if !ok || s.Status != shift.StatusDraft {
			continue
		}
		s.Status = shift.StatusPublished
		count++
	}
	return count, nil
}

func (m *mockShiftRepository) PublishAll() (int64, error) {
	var count int64
	for _, s := range m.shifts {
		if s.Status == shift.StatusDraft {
			s.Status = shift.StatusPublished
			count++
		}
	}
	return count, nil
}

func (m *mockShiftRepository) CreateTemplate(t *shift.Template) error {
	t.ID = m.nextID
	m.nextID++
	copied := *t
	m.templates[t.ID] = &copied
	return nil
}

func (m *mockShiftRepository) ListTemplates() ([]shift.Template, error) {
	out := make([]shift.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockShiftRepository) DeleteTemplate(templateID int64) error {
	if _, ok := m.templates[templateID]; !ok {
		return internal.ErrTemplateNotFound
	}
	delete(m.templates, templateID)
	return nil
}

type mockRoster struct {
	agents map[int64][]int64
}

func (m *mockRoster) AgentIDs(leaderID int64) ([]int64, error) {
	return m.agents[leaderID], nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsStatus(statuses []shift.Status, s shift.Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func managerPrincipal(id int64) *auth.Principal {
	return &auth.Principal{
		ID:   id,
		Role: permission.RoleManager,
		Perms: permission.Resolution{
			Role: permission.RoleManager,
			Set: permission.Set{
				ManageShifts:  true,
				PublishShifts: true,
				ViewDrafts:    true,
			},
		},
	}
}

func leaderPrincipal(id int64, set permission.Set) *auth.Principal {
	return &auth.Principal{
		ID:    id,
		Role:  permission.RoleTeamLeader,
		Perms: permission.Resolution{Role: permission.RoleTeamLeader, Set: set},
	}
}

func agentPrincipal(id int64) *auth.Principal {
	return &auth.Principal{
		ID:    id,
		Role:  permission.RoleAgent,
		Perms: permission.Resolution{Role: permission.RoleAgent},
	}
}

var _ = Describe("ShiftService", func() {
	var (
		service *shift.Service
		repo    *mockShiftRepository
		roster  *mockRoster
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = newMockShiftRepository()
		roster = &mockRoster{agents: make(map[int64][]int64)}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		broadcaster := events.NewBroadcaster(events.NewEventBus(logger))
		service = shift.NewService(repo, roster, broadcaster, logger)
		ctx = context.Background()
	})

	Describe("CreateShift", func() {
		Context("when the caller lacks the publish permission", func() {
			It("should force the shift to draft even when publication is requested", func() {
				leader := leaderPrincipal(10, permission.Set{ManageShifts: true})
				roster.agents[10] = []int64{20}

				created, err := service.CreateShift(ctx, leader, shift.CreateShiftDTO{
					UserID:    20,
					Date:      "2026-09-07",
					StartTime: "09:00",
					EndTime:   "17:00",
					Publish:   true,
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(created.Status).To(Equal(shift.StatusDraft))
			})
		})

		Context("when the caller can publish", func() {
			It("should honor a publish request", func() {
				created, err := service.CreateShift(ctx, managerPrincipal(1), shift.CreateShiftDTO{
					UserID:    20,
					Date:      "2026-09-07",
					StartTime: "09:00",
					EndTime:   "17:00",
					Publish:   true,
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(created.Status).To(Equal(shift.StatusPublished))
			})

			It("should still default to draft without an explicit publish request", func() {
				created, err := service.CreateShift(ctx, managerPrincipal(1), shift.CreateShiftDTO{
					UserID:    20,
					Date:      "2026-09-07",
					StartTime: "09:00",
					EndTime:   "17:00",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(created.Status).To(Equal(shift.StatusDraft))
			})
		})

		Context("when the caller lacks manage_shifts", func() {
			It("should reject the request", func() {
				_, err := service.CreateShift(ctx, agentPrincipal(20), shift.CreateShiftDTO{
					UserID:    20,
					Date:      "2026-09-07",
					StartTime: "09:00",
					EndTime:   "17:00",
				})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeMissingPermission))
			})
		})

		Context("when a leader targets a user outside their roster", func() {
			It("should reject with an out-of-scope error", func() {
				leader := leaderPrincipal(10, permission.Set{ManageShifts: true})
				roster.agents[10] = []int64{20}

				_, err := service.CreateShift(ctx, leader, shift.CreateShiftDTO{
					UserID:    99,
					Date:      "2026-09-07",
					StartTime: "09:00",
					EndTime:   "17:00",
				})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeOutOfScope))
			})
		})
	})

	Describe("BulkCreateShifts", func() {
		It("should create users x dates shifts", func() {
			count, err := service.BulkCreateShifts(ctx, managerPrincipal(1), shift.BulkCreateShiftDTO{
				UserIDs:   []int64{20, 21},
				StartDate: "2026-09-07",
				EndDate:   "2026-09-09",
				StartTime: "09:00",
				EndTime:   "17:00",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(6))
			Expect(repo.shifts).To(HaveLen(6))
		})

		It("should keep only the requested weekdays", func() {
			// 2026-09-07 is a Monday
			count, err := service.BulkCreateShifts(ctx, managerPrincipal(1), shift.BulkCreateShiftDTO{
				UserIDs:   []int64{20},
				StartDate: "2026-09-07",
				EndDate:   "2026-09-13",
				StartTime: "09:00",
				EndTime:   "17:00",
				Weekdays:  []string{"monday", "wednesday"},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(2))
		})

		It("should apply one status decision to the whole batch", func() {
			_, err := service.BulkCreateShifts(ctx, managerPrincipal(1), shift.BulkCreateShiftDTO{
				UserIDs:   []int64{20, 21},
				StartDate: "2026-09-07",
				EndDate:   "2026-09-07",
				StartTime: "09:00",
				EndTime:   "17:00",
				Publish:   true,
			})

			Expect(err).ToNot(HaveOccurred())
			for _, s := range repo.shifts {
				Expect(s.Status).To(Equal(shift.StatusPublished))
			}
		})
	})

	Describe("UpdateShift", func() {
		It("should return not found for a missing shift", func() {
			_, err := service.UpdateShift(ctx, managerPrincipal(1), 404, shift.UpdateShiftDTO{})

			Expect(err).To(Equal(internal.ErrShiftNotFound))
		})

		It("should apply field edits to a published shift and keep it published for a non-publisher", func() {
			leader := leaderPrincipal(10, permission.Set{ManageShifts: true})
			roster.agents[10] = []int64{20}
			published, _ := service.CreateShift(ctx, managerPrincipal(1), shift.CreateShiftDTO{
				UserID: 20, Date: "2026-09-07", StartTime: "09:00", EndTime: "17:00", Publish: true,
			})

			notes := "swap"
			draft := shift.StatusDraft
			updated, err := service.UpdateShift(ctx, leader, published.ID, shift.UpdateShiftDTO{Notes: &notes, Status: &draft})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Notes).To(Equal("swap"))
			Expect(updated.Status).To(Equal(shift.StatusPublished))
		})

		It("should keep a draft a draft when a non-publisher asks for published", func() {
			leader := leaderPrincipal(10, permission.Set{ManageShifts: true})
			roster.agents[10] = []int64{10}
			created, err := service.CreateShift(ctx, leader, shift.CreateShiftDTO{
				UserID: 10, Date: "2026-09-07", StartTime: "09:00", EndTime: "17:00",
			})
			Expect(err).ToNot(HaveOccurred())

			notes := "bring badge"
			published := shift.StatusPublished
			updated, err := service.UpdateShift(ctx, leader, created.ID, shift.UpdateShiftDTO{Notes: &notes, Status: &published})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Notes).To(Equal("bring badge"))
			Expect(updated.Status).To(Equal(shift.StatusDraft))
		})

		It("should honor a status change from a publisher", func() {
			manager := managerPrincipal(1)
			created, _ := service.CreateShift(ctx, manager, shift.CreateShiftDTO{
				UserID: 20, Date: "2026-09-07", StartTime: "09:00", EndTime: "17:00",
			})

			published := shift.StatusPublished
			updated, err := service.UpdateShift(ctx, manager, created.ID, shift.UpdateShiftDTO{Status: &published})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(shift.StatusPublished))
		})

		It("should apply a department edit", func() {
			manager := managerPrincipal(1)
			created, _ := service.CreateShift(ctx, manager, shift.CreateShiftDTO{
				UserID: 20, Date: "2026-09-07", StartTime: "09:00", EndTime: "17:00", Department: "support",
			})

			department := "logistics"
			updated, err := service.UpdateShift(ctx, manager, created.ID, shift.UpdateShiftDTO{Department: &department})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Department).To(Equal("logistics"))
		})
	})

	Describe("PublishShifts", func() {
		It("should skip missing and already-published ids and count only real flips", func() {
			manager := managerPrincipal(1)
			draft, _ := service.CreateShift(ctx, manager, shift.CreateShiftDTO{
				UserID: 20, Date: "2026-09-07", StartTime: "09:00", EndTime: "17:00",
			})
			published, _ := service.CreateShift(ctx, manager, shift.CreateShiftDTO{
				UserID: 20, Date: "2026-09-08", StartTime: "09:00", EndTime: "17:00", Publish: true,
			})

			count, err := service.PublishShifts(ctx, manager, []int64{draft.ID, published.ID, 9999})

			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("should reject callers without the publish permission", func() {
			leader := leaderPrincipal(10, permission.Set{ManageShifts: true})

			_, err := service.PublishShifts(ctx, leader, []int64{1})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingPermission))
		})
	})

	Describe("PublishAllShifts", func() {
		It("should publish every draft in the system", func() {
			manager := managerPrincipal(1)
			for _, date := range []string{"2026-09-07", "2026-09-08", "2026-09-09"} {
				_, err := service.CreateShift(ctx, manager, shift.CreateShiftDTO{
					UserID: 20, Date: date, StartTime: "09:00", EndTime: "17:00",
				})
				Expect(err).ToNot(HaveOccurred())
			}

			count, err := service.PublishAllShifts(ctx, manager)

			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(int64(3)))
		})
	})

	Describe("ListShifts", func() {
		var manager *auth.Principal

		BeforeEach(func() {
			manager = managerPrincipal(1)
			// agent 20: one published, one draft; agent 99: one published
			_, err := service.CreateShift(ctx, manager, shift.CreateShiftDTO{
				UserID: 20, Date: "2026-09-08", StartTime: "09:00", EndTime: "17:00", Publish: true,
			})
			Expect(err).ToNot(HaveOccurred())
			_, err = service.CreateShift(ctx, manager, shift.CreateShiftDTO{
				UserID: 20, Date: "2026-09-09", StartTime: "09:00", EndTime: "17:00",
			})
			Expect(err).ToNot(HaveOccurred())
			_, err = service.CreateShift(ctx, manager, shift.CreateShiftDTO{
				UserID: 99, Date: "2026-09-07", StartTime: "08:00", EndTime: "16:00", Publish: true,
			})
			Expect(err).ToNot(HaveOccurred())
		})

		Context("as an agent", func() {
			It("should return only the agent's own published shifts", func() {
				shifts, err := service.ListShifts(ctx, agentPrincipal(20), shift.ListFilter{})

				Expect(err).ToNot(HaveOccurred())
				Expect(shifts).To(HaveLen(1))
				Expect(shifts[0].UserID).To(Equal(int64(20)))
				Expect(shifts[0].Status).To(Equal(shift.StatusPublished))
			})

			It("should withhold drafts even when the agent role carries view_drafts", func() {
				agent := &auth.Principal{
					ID:    20,
					Role:  permission.RoleAgent,
					Perms: permission.Resolution{Role: permission.RoleAgent, Set: permission.Set{ViewDrafts: true}},
				}

				shifts, err := service.ListShifts(ctx, agent, shift.ListFilter{})

				Expect(err).ToNot(HaveOccurred())
				Expect(shifts).To(HaveLen(1))
				Expect(shifts[0].Status).To(Equal(shift.StatusPublished))
			})

			It("should return nothing when the agent filters for drafts", func() {
				agent := &auth.Principal{
					ID:    20,
					Role:  permission.RoleAgent,
					Perms: permission.Resolution{Role: permission.RoleAgent, Set: permission.Set{ViewDrafts: true}},
				}

				shifts, err := service.ListShifts(ctx, agent, shift.ListFilter{Status: shift.StatusDraft})

				Expect(err).ToNot(HaveOccurred())
				Expect(shifts).To(BeEmpty())
			})
		})

		Context("as a team leader with an empty roster", func() {
			It("should return an empty list, not everything", func() {
				leader := leaderPrincipal(10, permission.Set{ManageShifts: true})

				shifts, err := service.ListShifts(ctx, leader, shift.ListFilter{})

				Expect(err).ToNot(HaveOccurred())
				Expect(shifts).To(BeEmpty())
			})
		})

		Context("as a team leader with a roster", func() {
			It("should return the roster's published shifts only", func() {
				leader := leaderPrincipal(10, permission.Set{ManageShifts: true})
				roster.agents[10] = []int64{20}

				shifts, err := service.ListShifts(ctx, leader, shift.ListFilter{})

				Expect(err).ToNot(HaveOccurred())
				Expect(shifts).To(HaveLen(1))
				Expect(shifts[0].UserID).To(Equal(int64(20)))
			})

			It("should include roster drafts when the leader can view drafts", func() {
				leader := leaderPrincipal(10, permission.Set{ManageShifts: true, ViewDrafts: true})
				roster.agents[10] = []int64{20}

				shifts, err := service.ListShifts(ctx, leader, shift.ListFilter{})

				Expect(err).ToNot(HaveOccurred())
				Expect(shifts).To(HaveLen(2))
			})
		})

		Context("as a manager", func() {
			It("should return every shift ordered by date then start time", func() {
				shifts, err := service.ListShifts(ctx, manager, shift.ListFilter{})

				Expect(err).ToNot(HaveOccurred())
				Expect(shifts).To(HaveLen(3))
				Expect(shifts[0].Date).To(Equal("2026-09-07"))
				Expect(shifts[1].Date).To(Equal("2026-09-08"))
				Expect(shifts[2].Date).To(Equal("2026-09-09"))
			})

			It("should honor the status filter", func() {
				shifts, err := service.ListShifts(ctx, manager, shift.ListFilter{Status: shift.StatusDraft})

				Expect(err).ToNot(HaveOccurred())
				Expect(shifts).To(HaveLen(1))
				Expect(shifts[0].Status).To(Equal(shift.StatusDraft))
			})
		})
	})

	Describe("DeleteShift", func() {
		It("should remove the shift", func() {
			manager := managerPrincipal(1)
			created, _ := service.CreateShift(ctx, manager, shift.CreateShiftDTO{
				UserID: 20, Date: "2026-09-07", StartTime: "09:00", EndTime: "17:00",
			})

			err := service.DeleteShift(ctx, manager, created.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.shifts).To(BeEmpty())
		})

		It("should return not found for a missing shift", func() {
			err := service.DeleteShift(ctx, managerPrincipal(1), 404)

			Expect(err).To(Equal(internal.ErrShiftNotFound))
		})
	})
})
