package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shiftwise/shift-manager/internal/permission"
	permissionpg "github.com/shiftwise/shift-manager/internal/permission/postgres"
	"github.com/shiftwise/shift-manager/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed default role permissions, demo users and break types for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initGormDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"break_logs", "clock_logs", "availability", "shifts", "shift_templates", "team_leader_agents", "job_role_members", "job_roles", "audit_logs", "role_permissions", "break_types", "departments", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		permissionService := permission.NewService(permissionpg.NewPermissionRepository(db), logger.LoggerWrapper())
		if err := permissionService.EnsureDefaults(); err != nil {
			log.Fatalf("failed to seed default role permissions: %v", err)
		}
		fmt.Println("Seeded default role permissions")

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUsers := []struct {
			Email      string
			Name       string
			Role       string
			Department string
		}{
			{"admin@shiftwise.dev", "Admin", permission.RoleAccountAdmin, ""},
			{"maya@shiftwise.dev", "Maya Manager", permission.RoleManager, "support"},
			{"liam@shiftwise.dev", "Liam Leader", permission.RoleTeamLeader, "support"},
			{"ana@shiftwise.dev", "Ana Agent", permission.RoleAgent, "support"},
		}

		for _, u := range seedUsers {
			if err := seedUser(db, u.Email, u.Name, u.Role, u.Department, string(hash)); err != nil {
				log.Fatalf("failed to seed user %s: %v", u.Email, err)
			}
		}

		breakTypes := []struct {
			Name       string
			Icon       string
			Color      string
			MaxMinutes int
			SortOrder  int
		}{
			{"Lunch", "utensils", "#f59e0b", 45, 1},
			{"Coffee", "coffee", "#92400e", 15, 2},
			{"Training", "book-open", "#3b82f6", 60, 3},
		}
		for _, bt := range breakTypes {
			var exists int
			if err := db.Raw("SELECT 1 FROM break_types WHERE name = ?", bt.Name).Row().Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec(
				"INSERT INTO break_types (name, icon, color, max_minutes, active, sort_order) VALUES (?, ?, ?, ?, true, ?)",
				bt.Name, bt.Icon, bt.Color, bt.MaxMinutes, bt.SortOrder,
			).Error; err != nil {
				log.Fatalf("failed to insert break type %s: %v", bt.Name, err)
			}
		}
		fmt.Println("Seeded break types")

		var exists int
		if err := db.Raw("SELECT 1 FROM departments WHERE name = ?", "support").Row().Scan(&exists); err != nil {
			if err := db.Exec(
				"INSERT INTO departments (name, color, background, active, created_at) VALUES (?, ?, ?, true, now())",
				"support", "#1d4ed8", "#dbeafe",
			).Error; err != nil {
				log.Fatalf("failed to insert department: %v", err)
			}
		}
		fmt.Println("Seeded department")

		// Put the demo agent on the demo leader's roster.
		var leaderID, agentID int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "liam@shiftwise.dev").Row().Scan(&leaderID); err != nil {
			log.Fatalf("failed to look up seeded leader: %v", err)
		}
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "ana@shiftwise.dev").Row().Scan(&agentID); err != nil {
			log.Fatalf("failed to look up seeded agent: %v", err)
		}
		if err := db.Raw("SELECT 1 FROM team_leader_agents WHERE leader_id = ? AND agent_id = ?", leaderID, agentID).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO team_leader_agents (leader_id, agent_id, created_at) VALUES (?, ?, now())", leaderID, agentID).Error; err != nil {
				log.Fatalf("failed to insert roster entry: %v", err)
			}
		}
		fmt.Println("Seeded roster entry")

		fmt.Println("Seeding complete. Demo password for all users:", password)
	},
}

func seedUser(db *gorm.DB, email, name, role, department, passwordHash string) error {
	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row().Scan(&exists); err == nil {
		fmt.Println("user already exists:", email)
		return nil
	}
	if err := db.Exec(
		"INSERT INTO users (email, name, role, department, password_hash, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
		email, name, role, department, passwordHash,
	).Error; err != nil {
		return err
	}
	fmt.Println("Seeded user:", email)
	return nil
}
