package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/attendance"
	attendancepg "github.com/shiftwise/shift-manager/internal/attendance/postgres"
	"github.com/shiftwise/shift-manager/internal/audit"
	auditpg "github.com/shiftwise/shift-manager/internal/audit/postgres"
	"github.com/shiftwise/shift-manager/internal/auth"
	authpg "github.com/shiftwise/shift-manager/internal/auth/postgres"
	"github.com/shiftwise/shift-manager/internal/core/events"
	"github.com/shiftwise/shift-manager/internal/dashboard"
	"github.com/shiftwise/shift-manager/internal/permission"
	permissionpg "github.com/shiftwise/shift-manager/internal/permission/postgres"
	"github.com/shiftwise/shift-manager/internal/shift"
	shiftpg "github.com/shiftwise/shift-manager/internal/shift/postgres"
	"github.com/shiftwise/shift-manager/internal/team"
	teampg "github.com/shiftwise/shift-manager/internal/team/postgres"
	"github.com/shiftwise/shift-manager/internal/transport/rest"
	"github.com/shiftwise/shift-manager/internal/transport/swagger"
	"github.com/shiftwise/shift-manager/internal/user"
	userpg "github.com/shiftwise/shift-manager/internal/user/postgres"
	"github.com/shiftwise/shift-manager/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	GormDB   *gorm.DB
	SqlxDB   *sqlx.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := deps.GormDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to obtain sql.DB: %v\n", err)
		os.Exit(1)
	}
	rest.RegisterAllRoutes(deps.Router, sqlDB, deps.Handlers, deps.Logger)

	if err := swagger.ValidateDocument(context.Background(), "./api/openapi.yml"); err != nil {
		slog.Warn("OpenAPI document failed validation", "error", err)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := sqlDB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	gormDB, err := initGormDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlxDB, err := initSqlxDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sqlx connection: %w", err)
	}

	bus := events.NewEventBus(lg)
	broadcaster := events.NewBroadcaster(bus)

	permissionRepo := permissionpg.NewPermissionRepository(gormDB)
	permissionService := permission.NewService(permissionRepo, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)

	authRepo := authpg.NewAuthRepository(gormDB)
	authService := auth.NewService(authRepo, permissionService, tokenGen, lg)

	teamRepo := teampg.NewTeamRepository(gormDB)
	teamService := team.NewService(teamRepo, broadcaster, lg)

	attendanceRepo := attendancepg.NewAttendanceRepository(gormDB)
	attendanceService := attendance.NewService(attendanceRepo, teamService, broadcaster, lg)

	auditRepo := auditpg.NewAuditRepository(gormDB)
	auditService := audit.NewService(auditRepo, lg)

	userRepo := userpg.NewUserRepository(gormDB)
	userService := user.NewService(userRepo, attendanceService, auditService, authService, broadcaster, lg)

	shiftRepo := shiftpg.NewShiftRepository(gormDB)
	shiftService := shift.NewService(shiftRepo, teamService, broadcaster, lg)

	dashboardService := dashboard.NewService(sqlxDB, lg)

	handlers := rest.Handlers{
		Auth:       auth.NewHandler(authService, attendanceService, lg),
		User:       user.NewHandler(userService, lg),
		Shift:      shift.NewHandler(shiftService, lg),
		Attendance: attendance.NewHandler(attendanceService, lg),
		Team:       team.NewHandler(teamService, lg),
		Permission: permission.NewHandler(permissionService, lg),
		Audit:      audit.NewHandler(auditService, lg),
		Dashboard:  dashboard.NewHandler(dashboardService, lg),
	}

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		GormDB:   gormDB,
		SqlxDB:   sqlxDB,
		Router:   chi.NewRouter(),
		Handlers: handlers,
	}, nil
}

// initGormDB opens the main ORM connection over the pgx stdlib driver.
// TranslateError turns driver duplicate-key errors into gorm.ErrDuplicatedKey,
// which the repositories rely on for conflict detection.
func initGormDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:        cfg.Source,
		DriverName: "pgx",
	}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// initSqlxDB opens a second, lighter connection for the dashboard's raw
// aggregate queries.
func initSqlxDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.Source)
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	return db, nil
}
