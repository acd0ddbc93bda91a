package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor, role, branchID, object, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return ErrInvalidBranch
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case RoleAdmin, RoleBursar, RoleTeacher, RoleClerk:
	default:
		return ErrForbidden
	}

	subject := "user:" + actor
	roleName := "role:" + role
	domain := fmt.Sprintf("branch:%s", branchID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("access denied",
			zap.String("actor", actor),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps exactly one role binding per subject and branch,
// replacing a stale binding when the request carries a different role.
func (s *ServiceImpl) ensureGrouping(subject, roleName, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		_, _ = s.enforcer.RemoveGroupingPolicy(params...)
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Admin has every capability.
		{"role:admin", ObjectStudent, ActionView},
		{"role:admin", ObjectStudent, ActionCreate},
		{"role:admin", ObjectStudent, ActionUpdate},
		{"role:admin", ObjectFeeSchedule, ActionView},
		{"role:admin", ObjectFeeSchedule, ActionCreate},
		{"role:admin", ObjectPayment, ActionView},
		{"role:admin", ObjectPayment, ActionRecord},
		{"role:admin", ObjectAttendance, ActionView},
		{"role:admin", ObjectAttendance, ActionMark},
		{"role:admin", ObjectStaff, ActionView},
		{"role:admin", ObjectStaff, ActionCreate},
		{"role:admin", ObjectStaff, ActionUpdate},
		{"role:admin", ObjectPayroll, ActionView},
		{"role:admin", ObjectPayroll, ActionRun},
		{"role:admin", ObjectMessage, ActionView},
		{"role:admin", ObjectMessage, ActionSend},
		{"role:admin", ObjectDashboard, ActionView},
		{"role:admin", ObjectReport, ActionExport},

		// Bursar runs the money side.
		{"role:bursar", ObjectStudent, ActionView},
		{"role:bursar", ObjectFeeSchedule, ActionView},
		{"role:bursar", ObjectFeeSchedule, ActionCreate},
		{"role:bursar", ObjectPayment, ActionView},
		{"role:bursar", ObjectPayment, ActionRecord},
		{"role:bursar", ObjectStaff, ActionView},
		{"role:bursar", ObjectStaff, ActionCreate},
		{"role:bursar", ObjectStaff, ActionUpdate},
		{"role:bursar", ObjectPayroll, ActionView},
		{"role:bursar", ObjectPayroll, ActionRun},
		{"role:bursar", ObjectMessage, ActionView},
		{"role:bursar", ObjectMessage, ActionSend},
		{"role:bursar", ObjectDashboard, ActionView},
		{"role:bursar", ObjectReport, ActionExport},

		// Teachers mark attendance and look up their classes.
		{"role:teacher", ObjectStudent, ActionView},
		{"role:teacher", ObjectAttendance, ActionView},
		{"role:teacher", ObjectAttendance, ActionMark},

		// Clerks handle admissions and guardian messaging.
		{"role:clerk", ObjectStudent, ActionView},
		{"role:clerk", ObjectStudent, ActionCreate},
		{"role:clerk", ObjectStudent, ActionUpdate},
		{"role:clerk", ObjectMessage, ActionSend},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
