package comments

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/kanban-realtime-demo/domain/comment"
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
	if err := db.AutoMigrate(&comment.Comment{}, &comment.Attachment{}, &ticket.Activity{}, &user.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewRepository(db)
}

func seedUser(t *testing.T, repo *Repository, name string) *user.User {
	t.Helper()
	u := &user.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	if err := repo.db.Create(u).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return u
}

func TestRepository_CreateReturnsFeedEntry(t *testing.T) {
	repo := setupTestRepo(t)
	alice := seedUser(t, repo, "Alice")

	entry, err := repo.Create(12, alice.ID, "First comment")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry.ID == 0 {
		t.Error("entry should carry the activity id")
	}
	if entry.TicketID != 12 || entry.Message != "First comment" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.UserName != "Alice" {
		t.Errorf("entry.UserName = %s, want Alice", entry.UserName)
	}
	if entry.ActivityType != ticket.ActivityCommentAdded {
		t.Errorf("entry.ActivityType = %s, want %s", entry.ActivityType, ticket.ActivityCommentAdded)
	}

	// Both the comment row and the activity row exist.
	var comments, activities int64
	repo.db.Model(&comment.Comment{}).Count(&comments)
	repo.db.Model(&ticket.Activity{}).Count(&activities)
	if comments != 1 || activities != 1 {
		t.Errorf("row counts = %d comments, %d activities, want 1/1", comments, activities)
	}
}

func TestRepository_ListByTaskOrdersOldestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	alice := seedUser(t, repo, "Alice")
	_, _ = repo.Create(12, alice.ID, "first")
	_, _ = repo.Create(12, alice.ID, "second")
	_, _ = repo.Create(99, alice.ID, "other task")

	feed, err := repo.ListByTask(12)
	if err != nil {
		t.Fatalf("ListByTask() error = %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("feed has %d entries, want 2", len(feed))
	}
	if feed[0].Message != "first" || feed[1].Message != "second" {
		t.Errorf("feed order = %q, %q, want oldest first", feed[0].Message, feed[1].Message)
	}
}

func TestRepository_EditUpdatesActivityInPlace(t *testing.T) {
	repo := setupTestRepo(t)
	alice := seedUser(t, repo, "Alice")
	bob := seedUser(t, repo, "Bob")
	entry, _ := repo.Create(12, alice.ID, "original")

	result, err := repo.Edit(entry.ID, "revised", bob.ID)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if result.Message != "revised" || result.OldMessage != "original" || !result.Edited {
		t.Errorf("result = %+v", result)
	}
	if result.UpdatedUserName != "Bob" {
		t.Errorf("UpdatedUserName = %s, want Bob", result.UpdatedUserName)
	}

	// The feed shows the edited text on the original entry and a history row.
	feed, err := repo.ListByTask(12)
	if err != nil {
		t.Fatalf("ListByTask() error = %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("feed has %d entries, want original + history", len(feed))
	}
	if feed[0].ID != entry.ID || feed[0].Message != "revised" || feed[0].OldMessage != "original" {
		t.Errorf("original entry after edit = %+v", feed[0])
	}
	if feed[0].UpdatedBy == nil || *feed[0].UpdatedBy != bob.ID || feed[0].UpdatedUserName != "Bob" {
		t.Errorf("editor on original entry = %+v", feed[0])
	}
	if feed[1].ActivityType != ticket.ActivityCommentEdited {
		t.Errorf("history type = %s, want %s", feed[1].ActivityType, ticket.ActivityCommentEdited)
	}
}

func TestRepository_EditMissingActivity(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Edit(999, "x", 1)
	if !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("Edit() error = %v, want ErrActivityNotFound", err)
	}
}

func TestRepository_DeleteLeavesTombstone(t *testing.T) {
	repo := setupTestRepo(t)
	alice := seedUser(t, repo, "Alice")
	bob := seedUser(t, repo, "Bob")
	entry, _ := repo.Create(12, alice.ID, "delete me")

	result, err := repo.Delete(entry.ID, bob.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !result.Deleted || result.DeletedComment != "delete me" {
		t.Errorf("result = %+v", result)
	}
	if result.DeletedUserName != "Bob" {
		t.Errorf("DeletedUserName = %s, want Bob", result.DeletedUserName)
	}

	// The original entry leaves the feed; the tombstone remains.
	feed, err := repo.ListByTask(12)
	if err != nil {
		t.Fatalf("ListByTask() error = %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("feed has %d entries, want tombstone only", len(feed))
	}
	if feed[0].ActivityType != ticket.ActivityCommentDeleted {
		t.Errorf("tombstone type = %s, want %s", feed[0].ActivityType, ticket.ActivityCommentDeleted)
	}
	if feed[0].OldMessage != "delete me" {
		t.Errorf("tombstone OldMessage = %q, want deleted text", feed[0].OldMessage)
	}

	// The comment row is hard-deleted.
	var comments int64
	repo.db.Model(&comment.Comment{}).Count(&comments)
	if comments != 0 {
		t.Errorf("comment rows = %d, want 0", comments)
	}
}

func TestRepository_DeleteMissingActivity(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Delete(999, 1)
	if !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("Delete() error = %v, want ErrActivityNotFound", err)
	}
}

func TestRepository_AddAttachment(t *testing.T) {
	repo := setupTestRepo(t)
	alice := seedUser(t, repo, "Alice")

	att, err := repo.AddAttachment(12, alice.ID, "image", "/uploads/image/abc_shot.png")
	if err != nil {
		t.Fatalf("AddAttachment() error = %v", err)
	}
	if att.ID == 0 || att.TicketID != 12 || att.FileType != "image" {
		t.Errorf("attachment = %+v", att)
	}

	// The activity row records the file metadata as JSON.
	var activity ticket.Activity
	if err := repo.db.First(&activity, "activity_type = ?", ticket.ActivityAttachmentAdded).Error; err != nil {
		t.Fatalf("failed to load activity: %v", err)
	}
	if activity.TicketID != 12 || activity.UserID != alice.ID {
		t.Errorf("activity = %+v", activity)
	}
}
