package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/oldski/sportsfestDashboard-sub002/internal/audit/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectOrder           = "order"
	ObjectPayment         = "payment"
	ObjectFulfillment     = "fulfillment"
	ObjectTent            = "tent"
	ObjectTeam            = "team"
	ObjectRoster          = "roster"
	ObjectTransferWarning = "transfer_warning"
	ObjectAuditLog        = "audit_log"
)

const (
	ActionOrderView   = "order.view"
	ActionOrderCreate = "order.create"
	ActionOrderCancel = "order.cancel"

	ActionPaymentRecord    = "payment.record"
	ActionPaymentReconcile = "payment.reconcile"

	ActionFulfillmentRun = "fulfillment.run"

	ActionTentView = "tent.view"
	ActionTeamView = "team.view"

	ActionRosterView     = "roster.view"
	ActionRosterManage   = "roster.manage"
	ActionRosterGenerate = "roster.generate"

	ActionTransferWarningView    = "transfer_warning.view"
	ActionTransferWarningResolve = "transfer_warning.resolve"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

// NewEnforcer builds the enforcer backed by the casbin_rule table.
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
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return seed(enforcer)
}

// NewMemoryEnforcer builds an enforcer without persistence.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	return seed(enforcer)
}

func seed(enforcer *casbin.SyncedEnforcer) (*casbin.SyncedEnforcer, error) {
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, scope orgcontext.Scope, object string, action string) error {
	actorID := strings.TrimSpace(scope.ActorID)
	if actorID == "" {
		return ErrInvalidActor
	}
	if scope.OrgID == 0 && !scope.CrossTenant() {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	role := orgcontext.NormalizeRole(scope.Role)
	subject := "actor:" + actorID
	domain := fmt.Sprintf("org:%s", scope.OrgID.String())
	if err := s.ensureGrouping(subject, "role:"+role, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("domain", domain),
			zap.String("action", action),
		)
		s.auditDenied(ctx, scope, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
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

func (s *ServiceImpl) auditDenied(ctx context.Context, scope orgcontext.Scope, object string, action string) {
	if s.auditSvc == nil || scope.OrgID == 0 {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, scope, "authorization.denied", "authorization", object, map[string]any{
		"object": object,
		"action": action,
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// members run their own team rosters
		{"role:member", ObjectOrder, ActionOrderView},
		{"role:member", ObjectTent, ActionTentView},
		{"role:member", ObjectTeam, ActionTeamView},
		{"role:member", ObjectRoster, ActionRosterView},
		{"role:member", ObjectRoster, ActionRosterManage},
		{"role:member", ObjectTransferWarning, ActionTransferWarningView},
		{"role:member", ObjectTransferWarning, ActionTransferWarningResolve},

		{"role:admin", ObjectOrder, "*"},
		{"role:admin", ObjectTent, ActionTentView},
		{"role:admin", ObjectTeam, ActionTeamView},
		{"role:admin", ObjectRoster, "*"},
		{"role:admin", ObjectTransferWarning, "*"},
		{"role:admin", ObjectAuditLog, ActionAuditLogView},
		{"role:admin", ObjectPayment, ActionPaymentReconcile},
		{"role:admin", ObjectFulfillment, ActionFulfillmentRun},

		// payment notifications and fulfillment retries
		{"role:system", ObjectOrder, ActionOrderView},
		{"role:system", ObjectPayment, "*"},
		{"role:system", ObjectFulfillment, "*"},

		{"role:super_admin", "*", "*"},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
