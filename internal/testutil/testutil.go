// Package testutil provides the in-memory database fixture shared by tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/talentlink/talentlink/internal/models"
)

// OpenDB opens a fresh in-memory sqlite database with the full schema.
// Row locking clauses are stripped since sqlite has no FOR UPDATE.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db.ClauseBuilders["FOR"] = func(c clause.Clause, builder clause.Builder) {}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Job{},
		&models.Proposal{},
		&models.JobApplication{},
		&models.Contract{},
		&models.Workspace{},
		&models.WorkspaceTask{},
		&models.TaskComment{},
		&models.PaymentTransaction{},
		&models.PaymentRequest{},
		&models.Review{},
		&models.Notification{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given role and returns it.
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()

	u := models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return &u
}
