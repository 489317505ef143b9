package rbac

import (
	"context"
	"fmt"
	"sync"

	"github.com/boissonnick/contractoros/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadOrgPolicy(orgID string) error
	Enforce(req domain.EnforceRequest) (bool, error)
	ListRoles(orgID string) ([]domain.RoleResponse, error)

	// Convenience checks used by feature services.
	CanApprove(ctx context.Context, orgID, userID string) (bool, error)
	CanReadAllSummaries(ctx context.Context, orgID, userID string) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{
		repo:     repo,
		enforcer: enforcer,
		logger:   l,
	}
}

func (s *service) LoadOrgPolicy(orgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadOrgPolicyUnlocked(orgID)
}

// loadOrgPolicyUnlocked replaces the enforcer's in-memory policy with the
// org's rows. The enforcer holds one org at a time, which is why every
// Enforce reloads under the mutex.
func (s *service) loadOrgPolicyUnlocked(orgID string) error {
	s.enforcer.ClearPolicy()

	memberRoles, err := s.repo.GetMemberRoles(orgID)
	if err != nil {
		return err
	}

	for _, mr := range memberRoles {
		if _, err := s.enforcer.AddGroupingPolicy(mr.UserID, mr.RoleID, orgID); err != nil {
			return err
		}
	}

	rolePerms, err := s.repo.GetRolePermissions(orgID)
	if err != nil {
		return err
	}

	for _, rp := range rolePerms {
		if _, err := s.enforcer.AddPolicy(rp.RoleID, orgID, rp.Resource, rp.Action); err != nil {
			return err
		}
	}

	s.logger.Debug("org policy loaded",
		zap.String("org_id", orgID),
		zap.Int("member_roles", len(memberRoles)),
		zap.Int("role_permissions", len(rolePerms)),
	)

	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadOrgPolicyUnlocked(req.OrgID); err != nil {
		return false, err
	}

	allowed, err := s.enforcer.Enforce(req.UserID, req.OrgID, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("enforce failed",
			zap.String("user_id", req.UserID),
			zap.String("org_id", req.OrgID),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("enforce result",
		zap.String("user_id", req.UserID),
		zap.String("org_id", req.OrgID),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)

	return allowed, nil
}

func (s *service) CanApprove(ctx context.Context, orgID, userID string) (bool, error) {
	return s.Enforce(domain.EnforceRequest{
		UserID:   userID,
		OrgID:    orgID,
		Resource: "timeentry",
		Action:   "approve",
	})
}

func (s *service) CanReadAllSummaries(ctx context.Context, orgID, userID string) (bool, error) {
	return s.Enforce(domain.EnforceRequest{
		UserID:   userID,
		OrgID:    orgID,
		Resource: "summary",
		Action:   "read_all",
	})
}

func (s *service) ListRoles(orgID string) ([]domain.RoleResponse, error) {
	roles, err := s.repo.ListRoles(orgID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RoleResponse, 0, len(roles))
	for _, role := range roles {
		perms, err := s.repo.GetPermissionsByRoleID(role.ID)
		if err != nil {
			return nil, err
		}

		permStrings := make([]string, 0, len(perms))
		for _, p := range perms {
			permStrings = append(permStrings, fmt.Sprintf("%s:%s", p.Resource, p.Action))
		}

		out = append(out, domain.RoleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			Permissions: permStrings,
		})
	}

	return out, nil
}
