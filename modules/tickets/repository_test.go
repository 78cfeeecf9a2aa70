package tickets

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/kanban-realtime-demo/domain/ticket"
	"github.com/example/kanban-realtime-demo/domain/user"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&ticket.Ticket{}, &ticket.Activity{}, &user.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewRepository(db)
}

func TestRepository_CreateRecordsCreatorOnBothAuditColumns(t *testing.T) {
	repo := setupTestRepo(t)

	created, err := repo.Create("Fix login", 1, 7)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("Create() should assign an id")
	}
	if created.CreatedBy != 7 || created.UpdatedBy != 7 {
		t.Errorf("audit columns = (%d, %d), want (7, 7)", created.CreatedBy, created.UpdatedBy)
	}
}

func TestRepository_Update(t *testing.T) {
	repo := setupTestRepo(t)
	seed, _ := repo.Create("Old", 1, 7)

	updated, err := repo.Update(seed.ID, "New", 2, 9)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "New" || updated.StatusID != 2 {
		t.Errorf("updated = %+v, want New/2", updated)
	}
	if updated.CreatedBy != 7 || updated.UpdatedBy != 9 {
		t.Errorf("audit columns = (%d, %d), want creator kept and updater rewritten", updated.CreatedBy, updated.UpdatedBy)
	}
}

func TestRepository_UpdateMissingTicket(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Update(999, "x", 1, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	seed, _ := repo.Create("x", 1, 1)

	if err := repo.Delete(seed.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(seed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_MoveRecordsActivity(t *testing.T) {
	repo := setupTestRepo(t)
	if err := repo.db.Create(&user.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	seed, _ := repo.Create("card", 1, 1)

	moved, err := repo.Move(seed.ID, 5, 1)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if moved.OldStatusID != 1 || moved.StatusID != 5 {
		t.Errorf("move = %d -> %d, want 1 -> 5", moved.OldStatusID, moved.StatusID)
	}
	if moved.OldStatus != "Bug Found" || moved.NewStatus != "Reopen" {
		t.Errorf("status names = %s -> %s", moved.OldStatus, moved.NewStatus)
	}
	if moved.UpdatedByName != "Alice" {
		t.Errorf("UpdatedByName = %s, want Alice", moved.UpdatedByName)
	}
	if moved.ActivityID == 0 {
		t.Fatal("Move() should create an activity row")
	}

	var activity ticket.Activity
	if err := repo.db.First(&activity, "id = ?", moved.ActivityID).Error; err != nil {
		t.Fatalf("failed to load activity: %v", err)
	}
	if activity.ActivityType != ticket.ActivityStatusChanged {
		t.Errorf("activity type = %s, want %s", activity.ActivityType, ticket.ActivityStatusChanged)
	}
	if activity.OldValue != "Bug Found" || activity.NewValue != "Reopen" {
		t.Errorf("activity values = %s -> %s", activity.OldValue, activity.NewValue)
	}
}

func TestRepository_MoveUnknownMoverFallsBack(t *testing.T) {
	repo := setupTestRepo(t)
	seed, _ := repo.Create("card", 1, 1)

	moved, err := repo.Move(seed.ID, 2, 999)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if moved.UpdatedByName != "Unknown User" {
		t.Errorf("UpdatedByName = %s, want Unknown User", moved.UpdatedByName)
	}
}

func TestRepository_MoveMissingTicket(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Move(999, 2, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Move() error = %v, want ErrNotFound", err)
	}

	// The failed transaction must not leave an activity behind.
	var n int64
	if err := repo.db.Model(&ticket.Activity{}).Count(&n).Error; err != nil {
		t.Fatalf("count activities: %v", err)
	}
	if n != 0 {
		t.Errorf("activity count = %d, want 0", n)
	}
}

func TestRepository_FindAllAndFindByUser(t *testing.T) {
	repo := setupTestRepo(t)
	_, _ = repo.Create("first", 1, 1)
	_, _ = repo.Create("second", 2, 2)
	_, _ = repo.Create("third", 1, 1)

	all, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(all) != 3 || all[0].Title != "first" {
		t.Errorf("FindAll() = %d entries starting with %q, want 3 oldest-first", len(all), all[0].Title)
	}

	mine, err := repo.FindByUser(1)
	if err != nil {
		t.Fatalf("FindByUser() error = %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("FindByUser(1) = %d entries, want 2", len(mine))
	}
	for _, tk := range mine {
		if tk.CreatedBy != 1 {
			t.Errorf("FindByUser(1) returned ticket created by %d", tk.CreatedBy)
		}
	}
}
