// Package authorization enforces role-based access per branch with casbin.
// Roles are attached to requests by middleware; policies are seeded at
// startup and persisted through the gorm adapter.
package authorization

import (
	"context"
	"errors"
)

const (
	RoleAdmin   = "admin"
	RoleBursar  = "bursar"
	RoleTeacher = "teacher"
	RoleClerk   = "clerk"
)

const (
	ObjectStudent     = "student"
	ObjectFeeSchedule = "fee_schedule"
	ObjectPayment     = "payment"
	ObjectAttendance  = "attendance"
	ObjectStaff       = "staff"
	ObjectPayroll     = "payroll"
	ObjectMessage     = "message"
	ObjectDashboard   = "dashboard"
	ObjectReport      = "report"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionRecord = "record"
	ActionMark   = "mark"
	ActionSend   = "send"
	ActionRun    = "run"
	ActionExport = "export"
)

type Service interface {
	Authorize(ctx context.Context, actor, role, branchID, object, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidBranch = errors.New("invalid_branch")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
