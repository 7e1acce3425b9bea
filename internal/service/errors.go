package service

import "errors"

var (
	ErrRequestNotFound  = errors.New("request not found")
	ErrRequestCancelled = errors.New("request is cancelled")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrEmptyComment     = errors.New("comment must not be empty")
	ErrUnknownTaskType  = errors.New("unknown task type")
	ErrEmptyCatalog     = errors.New("task-type catalog must not be empty")
	ErrForbidden        = errors.New("action requires the primary admin")
	ErrMessagingBlocked = errors.New("messaging is not enabled for this request")
)
