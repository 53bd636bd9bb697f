package attendance_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/attendance"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/core/events"
	"github.com/shiftwise/shift-manager/internal/permission"
)

func TestAttendance(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Attendance Suite")
}

// Mock repository for testing
type mockAttendanceRepository struct {
	logs         map[int64]*attendance.ClockLog
	availability map[int64]*attendance.Availability
	breakTypes   map[int64]*attendance.BreakType
	breaks       map[int64]*attendance.BreakLog
	nextID       int64
}

func newMockAttendanceRepository() *mockAttendanceRepository {
	return &mockAttendanceRepository{
		logs:         make(map[int64]*attendance.ClockLog),
		availability: make(map[int64]*attendance.Availability),
		breakTypes:   make(map[int64]*attendance.BreakType),
		breaks:       make(map[int64]*attendance.BreakLog),
		nextID:       1,
	}
}

func (m *mockAttendanceRepository) InsertOpenLog(log *attendance.ClockLog) (bool, error) {
	for _, existing := range m.logs {
		if existing.UserID == log.UserID && existing.ClockOut == nil {
			return false, nil
		}
	}
	log.ID = m.nextID
	m.nextID++
	copied := *log
	m.logs[log.ID] = &copied
	return true, nil
}

func (m *mockAttendanceRepository) GetOpenLog(userID int64) (*attendance.ClockLog, error) {
	for _, log := range m.logs {
		if log.UserID == userID && log.ClockOut == nil {
			copied := *log
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockAttendanceRepository) CloseLog(logID int64, at time.Time) error {
	log, ok := m.logs[logID]
	if !ok || log.ClockOut != nil {
		return internal.ErrNotClockedIn
	}
	log.ClockOut = &at
	return nil
}

func (m *mockAttendanceRepository) ListLogs(q attendance.LogQuery) ([]attendance.ClockLog, error) {
	out := []attendance.ClockLog{}
	for _, log := range m.logs {
		if q.UserIDs != nil && !containsID(q.UserIDs, log.UserID) {
			continue
		}
		if q.DateFrom != "" && log.Date < q.DateFrom {
			continue
		}
		if q.DateTo != "" && log.Date > q.DateTo {
			continue
		}
		out = append(out, *log)
	}
	return out, nil
}

func (m *mockAttendanceRepository) UpsertAvailability(a *attendance.Availability) error {
	copied := *a
	m.availability[a.UserID] = &copied
	return nil
}

func (m *mockAttendanceRepository) GetAvailability(userID int64) (*attendance.Availability, error) {
	a, ok := m.availability[userID]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m *mockAttendanceRepository) ListAvailability() ([]attendance.Availability, error) {
	out := make([]attendance.Availability, 0, len(m.availability))
	for _, a := range m.availability {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockAttendanceRepository) CreateBreakType(bt *attendance.BreakType) error {
	bt.ID = m.nextID
	m.nextID++
	copied := *bt
	m.breakTypes[bt.ID] = &copied
	return nil
}

func (m *mockAttendanceRepository) ListBreakTypes() ([]attendance.BreakType, error) {
	out := make([]attendance.BreakType, 0, len(m.breakTypes))
	for _, bt := range m.breakTypes {
		out = append(out, *bt)
	}
	return out, nil
}

func (m *mockAttendanceRepository) GetBreakType(breakTypeID int64) (*attendance.BreakType, error) {
	bt, ok := m.breakTypes[breakTypeID]
	if !ok {
		return nil, internal.ErrBreakTypeNotFound
	}
	copied := *bt
	return &copied, nil
}

func (m *mockAttendanceRepository) UpdateBreakType(bt *attendance.BreakType) error {
	if _, ok := m.breakTypes[bt.ID]; !ok {
		return internal.ErrBreakTypeNotFound
	}
	copied := *bt
	m.breakTypes[bt.ID] = &copied
	return nil
}

func (m *mockAttendanceRepository) DeleteBreakType(breakTypeID int64) error {
	if _, ok := m.breakTypes[breakTypeID]; !ok {
		return internal.ErrBreakTypeNotFound
	}
	delete(m.breakTypes, breakTypeID)
	return nil
}

func (m *mockAttendanceRepository) StartBreak(b *attendance.BreakLog) error {
	b.ID = m.nextID
	m.nextID++
	copied := *b
	m.breaks[b.ID] = &copied
	return nil
}

func (m *mockAttendanceRepository) GetActiveBreak(userID int64) (*attendance.BreakLog, error) {
	for _, b := range m.breaks {
		if b.UserID == userID && b.EndedAt == nil {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockAttendanceRepository) EndBreak(breakID int64, at time.Time, durationMinutes int) error {
	b, ok := m.breaks[breakID]
	if !ok || b.EndedAt != nil {
		return internal.ErrNoActiveBreak
	}
	b.EndedAt = &at
	b.DurationMinutes = durationMinutes
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

func principalWith(id int64, role string, set permission.Set) *auth.Principal {
	return &auth.Principal{
		ID:         id,
		Role:       role,
		Department: "support",
		Perms:      permission.Resolution{Role: role, Set: set},
	}
}

var _ = Describe("AttendanceService", func() {
	var (
		service *attendance.Service
		repo    *mockAttendanceRepository
		roster  *mockRoster
		ctx     context.Context
		agent   *auth.Principal
	)

	BeforeEach(func() {
		repo = newMockAttendanceRepository()
		roster = &mockRoster{agents: make(map[int64][]int64)}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		broadcaster := events.NewBroadcaster(events.NewEventBus(logger))
		service = attendance.NewService(repo, roster, broadcaster, logger)
		ctx = context.Background()
		agent = principalWith(20, permission.RoleAgent, permission.Set{})
	})

	Describe("ClockIn", func() {
		It("should open a span and flip availability to online", func() {
			log, err := service.ClockIn(ctx, agent, "203.0.113.9")

			Expect(err).ToNot(HaveOccurred())
			Expect(log.ClockOut).To(BeNil())
			Expect(log.IP).To(Equal("203.0.113.9"))
			Expect(repo.availability[agent.ID].Online).To(BeTrue())
		})

		Context("when the user is already clocked in", func() {
			It("should return a conflict and leave the open span alone", func() {
				_, err := service.ClockIn(ctx, agent, "")
				Expect(err).ToNot(HaveOccurred())

				_, err = service.ClockIn(ctx, agent, "")

				Expect(err).To(Equal(internal.ErrAlreadyClockedIn))
				Expect(repo.logs).To(HaveLen(1))
			})
		})
	})

	Describe("ClockOut", func() {
		Context("without an open span", func() {
			It("should return not clocked in", func() {
				_, err := service.ClockOut(ctx, agent)

				Expect(err).To(Equal(internal.ErrNotClockedIn))
			})
		})

		It("should close the span and flip availability to offline", func() {
			_, err := service.ClockIn(ctx, agent, "")
			Expect(err).ToNot(HaveOccurred())

			closed, err := service.ClockOut(ctx, agent)

			Expect(err).ToNot(HaveOccurred())
			Expect(closed.ClockOut).ToNot(BeNil())
			Expect(repo.availability[agent.ID].Online).To(BeFalse())
		})

		It("should end a running break as part of clocking out", func() {
			repo.breakTypes[1] = &attendance.BreakType{ID: 1, Name: "Lunch", Active: true}
			_, err := service.ClockIn(ctx, agent, "")
			Expect(err).ToNot(HaveOccurred())
			_, err = service.StartBreak(ctx, agent, 1)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ClockOut(ctx, agent)

			Expect(err).ToNot(HaveOccurred())
			active, _ := repo.GetActiveBreak(agent.ID)
			Expect(active).To(BeNil())
		})
	})

	Describe("CloseOpenLog", func() {
		It("should close an open span on logout", func() {
			_, err := service.ClockIn(ctx, agent, "")
			Expect(err).ToNot(HaveOccurred())

			err = service.CloseOpenLog(ctx, agent.ID)

			Expect(err).ToNot(HaveOccurred())
			open, _ := repo.GetOpenLog(agent.ID)
			Expect(open).To(BeNil())
		})

		It("should be a no-op without an open span, still marking the user offline", func() {
			err := service.CloseOpenLog(ctx, agent.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.availability[agent.ID].Online).To(BeFalse())
		})
	})

	Describe("ForceOffline", func() {
		It("should flip availability without touching the open span", func() {
			_, err := service.ClockIn(ctx, agent, "")
			Expect(err).ToNot(HaveOccurred())

			err = service.ForceOffline(ctx, agent.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.availability[agent.ID].Online).To(BeFalse())
			open, _ := repo.GetOpenLog(agent.ID)
			Expect(open).ToNot(BeNil())
		})
	})

	Describe("GetStatus", func() {
		It("should return a zero projection for a user who never clocked in", func() {
			status, err := service.GetStatus(ctx, agent, agent.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(status.Online).To(BeFalse())
			Expect(status.OnBreak).To(BeFalse())
		})

		It("should require view_clock_logs to look at someone else", func() {
			_, err := service.GetStatus(ctx, agent, 99)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingPermission))
		})
	})

	Describe("ListLogs", func() {
		BeforeEach(func() {
			now := time.Now()
			closed := now.Add(8 * time.Hour)
			repo.logs[91] = &attendance.ClockLog{ID: 91, UserID: 20, Date: "2026-08-27", ClockIn: now, ClockOut: &closed}
			repo.logs[92] = &attendance.ClockLog{ID: 92, UserID: 21, Date: "2026-08-27", ClockIn: now, ClockOut: &closed}
			repo.logs[93] = &attendance.ClockLog{ID: 93, UserID: 22, Date: "2026-08-28", ClockIn: now}
			repo.nextID = 100
		})

		Context("as an agent", func() {
			It("should return only the agent's own logs", func() {
				logs, err := service.ListLogs(ctx, agent, attendance.LogFilter{})

				Expect(err).ToNot(HaveOccurred())
				Expect(logs).To(HaveLen(1))
				Expect(logs[0].UserID).To(Equal(int64(20)))
			})

			It("should refuse a filter for another user", func() {
				_, err := service.ListLogs(ctx, agent, attendance.LogFilter{UserID: 21})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeMissingPermission))
			})
		})

		Context("as a team leader restricted to their own team", func() {
			It("should return the roster's logs plus the leader's own", func() {
				leader := principalWith(10, permission.RoleTeamLeader, permission.Set{
					ViewClockLogs:   true,
					ViewOwnLogsOnly: true,
				})
				roster.agents[10] = []int64{20, 21}

				logs, err := service.ListLogs(ctx, leader, attendance.LogFilter{})

				Expect(err).ToNot(HaveOccurred())
				Expect(logs).To(HaveLen(2))
			})

			It("should return nothing for a user outside the roster", func() {
				leader := principalWith(10, permission.RoleTeamLeader, permission.Set{
					ViewClockLogs:   true,
					ViewOwnLogsOnly: true,
				})
				roster.agents[10] = []int64{20}

				logs, err := service.ListLogs(ctx, leader, attendance.LogFilter{UserID: 22})

				Expect(err).ToNot(HaveOccurred())
				Expect(logs).To(BeEmpty())
			})
		})

		Context("as a manager", func() {
			It("should return every log", func() {
				manager := principalWith(1, permission.RoleManager, permission.Set{ViewClockLogs: true})

				logs, err := service.ListLogs(ctx, manager, attendance.LogFilter{})

				Expect(err).ToNot(HaveOccurred())
				Expect(logs).To(HaveLen(3))
			})

			It("should honor the date range filter", func() {
				manager := principalWith(1, permission.RoleManager, permission.Set{ViewClockLogs: true})

				logs, err := service.ListLogs(ctx, manager, attendance.LogFilter{DateFrom: "2026-08-28"})

				Expect(err).ToNot(HaveOccurred())
				Expect(logs).To(HaveLen(1))
				Expect(logs[0].UserID).To(Equal(int64(22)))
			})
		})
	})

	Describe("StartBreak", func() {
		BeforeEach(func() {
			repo.breakTypes[1] = &attendance.BreakType{ID: 1, Name: "Lunch", Icon: "utensils", Color: "#f59e0b", MaxMinutes: 45, Active: true}
		})

		It("should require an open span", func() {
			_, err := service.StartBreak(ctx, agent, 1)

			Expect(err).To(Equal(internal.ErrNotClockedIn))
		})

		It("should snapshot the break type descriptor", func() {
			_, err := service.ClockIn(ctx, agent, "")
			Expect(err).ToNot(HaveOccurred())

			b, err := service.StartBreak(ctx, agent, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(b.Name).To(Equal("Lunch"))
			Expect(b.Icon).To(Equal("utensils"))
			Expect(b.Date).ToNot(BeEmpty())
			Expect(repo.availability[agent.ID].OnBreak).To(BeTrue())
			Expect(repo.availability[agent.ID].BreakName).To(Equal("Lunch"))
			Expect(repo.availability[agent.ID].BreakColor).To(Equal("#f59e0b"))
			Expect(repo.availability[agent.ID].ClockedInAt).ToNot(BeNil())
		})

		It("should refuse a second concurrent break", func() {
			_, err := service.ClockIn(ctx, agent, "")
			Expect(err).ToNot(HaveOccurred())
			_, err = service.StartBreak(ctx, agent, 1)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.StartBreak(ctx, agent, 1)

			Expect(err).To(Equal(internal.ErrBreakActive))
		})

		It("should reject an unknown break type", func() {
			_, err := service.ClockIn(ctx, agent, "")
			Expect(err).ToNot(HaveOccurred())

			_, err = service.StartBreak(ctx, agent, 404)

			Expect(err).To(Equal(internal.ErrBreakTypeNotFound))
		})

		It("should reject a deactivated break type", func() {
			repo.breakTypes[2] = &attendance.BreakType{ID: 2, Name: "Legacy", Active: false}
			_, err := service.ClockIn(ctx, agent, "")
			Expect(err).ToNot(HaveOccurred())

			_, err = service.StartBreak(ctx, agent, 2)

			Expect(err).To(Equal(internal.ErrBreakTypeNotFound))
		})
	})

	Describe("EndBreak", func() {
		It("should return no active break when none is running", func() {
			_, err := service.EndBreak(ctx, agent)

			Expect(err).To(Equal(internal.ErrNoActiveBreak))
		})

		It("should close the break and clear the break flag", func() {
			repo.breakTypes[1] = &attendance.BreakType{ID: 1, Name: "Coffee", Active: true}
			_, err := service.ClockIn(ctx, agent, "")
			Expect(err).ToNot(HaveOccurred())
			_, err = service.StartBreak(ctx, agent, 1)
			Expect(err).ToNot(HaveOccurred())

			ended, err := service.EndBreak(ctx, agent)

			Expect(err).ToNot(HaveOccurred())
			Expect(ended.EndedAt).ToNot(BeNil())
			Expect(ended.DurationMinutes).To(BeNumerically(">=", 0))
			Expect(repo.availability[agent.ID].Online).To(BeTrue())
			Expect(repo.availability[agent.ID].OnBreak).To(BeFalse())
			Expect(repo.availability[agent.ID].BreakName).To(BeEmpty())
		})
	})

	Describe("Break type administration", func() {
		It("should require manage_users to create a break type", func() {
			_, err := service.CreateBreakType(ctx, agent, attendance.BreakTypeDTO{Name: "Lunch"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingPermission))
		})

		It("should hide deactivated break types from regular users", func() {
			repo.breakTypes[1] = &attendance.BreakType{ID: 1, Name: "Lunch", Active: true}
			repo.breakTypes[2] = &attendance.BreakType{ID: 2, Name: "Legacy", Active: false}

			types, err := service.ListBreakTypes(ctx, agent)

			Expect(err).ToNot(HaveOccurred())
			Expect(types).To(HaveLen(1))
			Expect(types[0].Name).To(Equal("Lunch"))
		})

		It("should show the full catalog to an admin", func() {
			repo.breakTypes[1] = &attendance.BreakType{ID: 1, Name: "Lunch", Active: true}
			repo.breakTypes[2] = &attendance.BreakType{ID: 2, Name: "Legacy", Active: false}
			admin := principalWith(1, permission.RoleManager, permission.Set{ManageUsers: true})

			types, err := service.ListBreakTypes(ctx, admin)

			Expect(err).ToNot(HaveOccurred())
			Expect(types).To(HaveLen(2))
		})
	})
})
