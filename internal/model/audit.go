package model

import (
	"time"
)

const (
	ActionCreateRequest    = "CREATE_REQUEST"
	ActionChangeStatus     = "CHANGE_STATUS"
	ActionCancelRequest    = "CANCEL_REQUEST"
	ActionTogglePermission = "TOGGLE_PERMISSION"
	ActionEditComment      = "EDIT_COMMENT"

	// Allow-list and catalog management
	ActionAddAdmin         = "ADD_ADMIN"
	ActionRemoveAdmin      = "REMOVE_ADMIN"
	ActionReplaceTaskTypes = "REPLACE_TASK_TYPES"
)

// AuditLog tracks Who, What, and When for every request and allow-list change
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   int64     `gorm:"not null;index" json:"actor_id"`
	Action    string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID  string    `gorm:"type:varchar(50);index" json:"entity_id"` // request id, admin id, or "catalog"
	Details   string    `gorm:"type:text" json:"details"`               // Serialized JSON payload of the action
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
