package models_test

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/testutil"
)

func seedTask(t *testing.T, db *gorm.DB) *models.WorkspaceTask {
	t.Helper()

	client := testutil.CreateUser(t, db, "client", models.RoleClient)
	freelancer := testutil.CreateUser(t, db, "freelancer", models.RoleFreelancer)

	contract := models.Contract{
		ClientID:     client.ID,
		FreelancerID: freelancer.ID,
		Status:       models.ContractStatusActive,
	}
	if err := db.Create(&contract).Error; err != nil {
		t.Fatal(err)
	}
	ws := models.Workspace{ContractID: contract.ID}
	if err := db.Create(&ws).Error; err != nil {
		t.Fatal(err)
	}

	task := models.WorkspaceTask{
		WorkspaceID:  ws.ID,
		Title:        "Write docs",
		CreatedByID:  client.ID,
		AssignedToID: freelancer.ID,
		Status:       models.TaskStatusTodo,
		Priority:     models.TaskPriorityMedium,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatal(err)
	}
	return &task
}

func TestTaskCompletedAtStampedOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	task := seedTask(t, db)

	task.Status = models.TaskStatusCompleted
	if err := db.Save(task).Error; err != nil {
		t.Fatal(err)
	}
	if task.CompletedAt == nil {
		t.Fatal("completed_at not stamped on completion")
	}
	stamped := *task.CompletedAt

	time.Sleep(10 * time.Millisecond)
	task.Description = "updated"
	if err := db.Save(task).Error; err != nil {
		t.Fatal(err)
	}
	if !task.CompletedAt.Equal(stamped) {
		t.Error("completed_at changed on a later save while still completed")
	}
}

func TestTaskCompletedAtClearedOnReopen(t *testing.T) {
	db := testutil.OpenDB(t)
	task := seedTask(t, db)

	task.Status = models.TaskStatusCompleted
	if err := db.Save(task).Error; err != nil {
		t.Fatal(err)
	}

	task.Status = models.TaskStatusInProgress
	if err := db.Save(task).Error; err != nil {
		t.Fatal(err)
	}
	if task.CompletedAt != nil {
		t.Error("completed_at not cleared after leaving completed")
	}
}

func TestTaskPastDeadlineForcedOverdue(t *testing.T) {
	db := testutil.OpenDB(t)
	task := seedTask(t, db)

	past := time.Now().Add(-time.Hour)
	task.Deadline = &past
	task.Status = models.TaskStatusInProgress
	if err := db.Save(task).Error; err != nil {
		t.Fatal(err)
	}
	if task.Status != models.TaskStatusOverdue {
		t.Errorf("status = %s, want overdue", task.Status)
	}
}

func TestCompletedTaskIgnoresDeadline(t *testing.T) {
	db := testutil.OpenDB(t)
	task := seedTask(t, db)

	past := time.Now().Add(-time.Hour)
	task.Deadline = &past
	task.Status = models.TaskStatusCompleted
	if err := db.Save(task).Error; err != nil {
		t.Fatal(err)
	}
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", task.Status)
	}
	if task.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}
}
