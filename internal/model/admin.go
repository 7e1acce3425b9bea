package model

import "time"

// Admin is a store-managed member of the admin allow-list. The primary admin
// and the statically configured ids never appear here.
type Admin struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Admin) TableName() string { return "admins" }

// TaskType is one entry of the ordered task-type catalog offered to users.
type TaskType struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Label    string `gorm:"type:varchar(100);uniqueIndex;not null" json:"label"`
	Position int    `gorm:"not null;index" json:"position"`
}

func (TaskType) TableName() string { return "task_types" }

// DefaultTaskTypes seeds an empty catalog.
var DefaultTaskTypes = []string{"Software Task", "Write Paper", "Make Presentation", "Other"}
