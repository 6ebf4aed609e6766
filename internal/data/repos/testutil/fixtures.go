package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/komodohub/komodo-hub-backend/internal/domain"
)

func SeedUser(tb testing.TB, tx *gorm.DB, clerkID, firstName, lastName string) *types.User {
	tb.Helper()
	u := &types.User{
		ClerkID:   clerkID,
		Email:     clerkID + "@example.com",
		FirstName: firstName,
		LastName:  lastName,
		ImageURL:  "https://img.example.com/" + clerkID + ".png",
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, tx *gorm.DB, title string, moduleIDs ...string) *types.Course {
	tb.Helper()
	modules := make([]types.Module, 0, len(moduleIDs))
	for i, id := range moduleIDs {
		modules = append(modules, types.Module{ID: id, Title: "Module " + id, Content: "content " + id, Order: i + 1})
	}
	c := &types.Course{
		Title:       title,
		Description: title + " description",
		Level:       "Beginner",
		Modules:     modules,
	}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedProgress(tb testing.TB, tx *gorm.DB, userID, courseID uuid.UUID, moduleIDs ...string) *types.UserProgress {
	tb.Helper()
	p := &types.UserProgress{
		UserID:           userID,
		CourseID:         courseID,
		CompletedModules: append([]string{}, moduleIDs...),
		LastAccessed:     time.Now().UTC(),
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

func SeedPost(tb testing.TB, tx *gorm.DB, authorID uuid.UUID, content string, createdAt time.Time) *types.Post {
	tb.Helper()
	p := &types.Post{
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: createdAt,
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed post: %v", err)
	}
	return p
}

func SeedMessage(tb testing.TB, tx *gorm.DB, senderID, receiverID uuid.UUID, content string, createdAt time.Time) *types.Message {
	tb.Helper()
	m := &types.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  createdAt,
	}
	if err := tx.Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	return m
}
