package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/kanban-realtime-demo/domain/user"
)

// Module provides login, logout and token verification services.
type Module struct {
	db          *gorm.DB
	repo        *UserRepository
	service     *Service
	redisClient *redis.Client
	dbPath      string
	redisAddr   string
	jwtConfig   JWTConfig
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the auth module. JWT_SECRET, DB_PATH and REDIS_ADDR are
// read from the environment; without REDIS_ADDR the revocation set is kept
// in process memory.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "kanban.db"
	}
	config := DefaultJWTConfig()
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.SecretKey = secret
	}
	return &Module{
		dbPath:    dbPath,
		redisAddr: os.Getenv("REDIS_ADDR"),
		jwtConfig: config,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// Start opens the database, wires the revocation store and seeds the default
// admin account on an empty users table.
func (m *Module) Start(ctx context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&user.User{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.repo = NewUserRepository(m.db)

	var revocations RevocationStore
	if m.redisAddr != "" {
		m.redisClient = redis.NewClient(&redis.Options{
			Addr:         m.redisAddr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := m.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		revocations = NewRedisRevocations(m.redisClient)
		log.Printf("[auth] Token revocations stored in Redis at %s", m.redisAddr)
	} else {
		revocations = NewMemoryRevocations()
		log.Println("[auth] REDIS_ADDR not set, token revocations kept in memory")
	}

	m.service = NewService(m.repo, NewJWTManager(m.jwtConfig), revocations)

	if err := m.seedAdmin(); err != nil {
		return err
	}

	log.Println("[auth] Module started")
	return nil
}

// seedAdmin creates the default admin account when the users table is empty.
func (m *Module) seedAdmin() error {
	count, err := m.repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin@123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &user.User{
		Name:         "Admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
	}
	if err := m.repo.Create(admin); err != nil {
		return err
	}
	log.Printf("[auth] Seeded admin user %s (id %d)", admin.Email, admin.ID)
	return nil
}

// Stop closes the database and Redis connections.
func (m *Module) Stop(_ context.Context) error {
	if m.redisClient != nil {
		if err := m.redisClient.Close(); err != nil {
			log.Printf("[auth] Error closing Redis connection: %v", err)
		}
	}
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Health reports database reachability.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"revocations": m.revocationBackend()},
	}
}

func (m *Module) revocationBackend() string {
	if m.redisAddr != "" {
		return "redis"
	}
	return "memory"
}

// RegisterServices registers the auth request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.login,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "logout", json.Unmarshal, json.Marshal, m.logout,
	); err != nil {
		return fmt.Errorf("failed to register logout service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "verify", json.Unmarshal, json.Marshal, m.verify,
	); err != nil {
		return fmt.Errorf("failed to register verify service: %w", err)
	}
	log.Printf("[auth] Registered services: services.auth.{login,logout,verify}")
	return nil
}

// login handles the auth.login service request.
func (m *Module) login(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return LoginResponse{}, fmt.Errorf("email and password are required")
	}
	ident, token, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		Token:  token,
		UserID: ident.UserID,
		Name:   ident.Name,
		Email:  ident.Email,
	}, nil
}

// logout handles the auth.logout service request.
func (m *Module) logout(ctx context.Context, req LogoutRequest, _ *mono.Msg) (LogoutResponse, error) {
	if err := m.service.Logout(ctx, req.Token); err != nil {
		return LogoutResponse{}, err
	}
	return LogoutResponse{Success: true}, nil
}

// verify handles the auth.verify service request. Verification failures are
// encoded in the response so callers can relay the cause to the client.
func (m *Module) verify(ctx context.Context, req VerifyRequest, _ *mono.Msg) (VerifyResponse, error) {
	ident, err := m.service.Verify(ctx, req.Token)
	if err != nil {
		return VerifyResponse{Valid: false, Error: err.Error()}, nil
	}
	return VerifyResponse{
		Valid:  true,
		UserID: ident.UserID,
		Name:   ident.Name,
		Email:  ident.Email,
	}, nil
}
