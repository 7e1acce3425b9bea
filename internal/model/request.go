package model

import (
	"time"
)

// RequestStatus is the lifecycle state of a Request.
type RequestStatus string

const (
	StatusWaiting   RequestStatus = "waiting"
	StatusAccepted  RequestStatus = "accepted"
	StatusDenied    RequestStatus = "denied"
	StatusDone      RequestStatus = "done"
	StatusCancelled RequestStatus = "cancelled"
)

// AllStatuses lists every known status in report order.
var AllStatuses = []RequestStatus{StatusWaiting, StatusAccepted, StatusDenied, StatusDone, StatusCancelled}

// AdminStatuses are the statuses an admin may move a request into.
var AdminStatuses = []RequestStatus{StatusAccepted, StatusDenied, StatusWaiting, StatusDone}

// Valid reports whether s is one of the five known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusAccepted, StatusDenied, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// AdminSettable reports whether an admin may set s directly.
func (s RequestStatus) AdminSettable() bool {
	return s.Valid() && s != StatusCancelled
}

// Terminal reports whether no transition out of s exists.
func (s RequestStatus) Terminal() bool {
	return s == StatusCancelled
}

// Active reports whether the request still needs attention from the submitter's point of view.
func (s RequestStatus) Active() bool {
	return s == StatusWaiting || s == StatusAccepted
}

// Request is one unit of work submitted by a user through the chat flow.
type Request struct {
	ID          int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SubmitterID int64         `gorm:"not null;index" json:"submitter_id"`
	DisplayName string        `gorm:"type:varchar(255)" json:"display_name"`
	TaskType    string        `gorm:"type:varchar(100);not null" json:"task_type"`
	SubType     string        `gorm:"type:varchar(100)" json:"sub_type,omitempty"` // reserved, unused by the flows
	Comment     string        `gorm:"type:text;not null" json:"comment"`
	MediaKey    string        `gorm:"type:varchar(255)" json:"media_key,omitempty"`
	Status      RequestStatus `gorm:"type:varchar(20);not null;default:'waiting';index" json:"status"`
	CanMessage  bool          `gorm:"not null;default:false" json:"can_message"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (Request) TableName() string { return "requests" }

// MessagingAllowed is the effective permission flag: a cancelled request never
// allows messaging, whatever bit is stored.
func (r *Request) MessagingAllowed() bool {
	return r.CanMessage && !r.Status.Terminal()
}

// EffectiveStatus maps an unrecognised stored status to waiting.
func (r *Request) EffectiveStatus() RequestStatus {
	if r.Status.Valid() {
		return r.Status
	}
	return StatusWaiting
}
