package service

import (
	"context"
	"fmt"
	"strings"

	"elocation/internal/apperror"
	"elocation/internal/cache"
	"elocation/internal/domain"
	"elocation/internal/model"
	"elocation/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required,max=50"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type CreatePermissionRequest struct {
	Code  string `json:"code" binding:"required,max=100"`
	Name  string `json:"name" binding:"required"`
	Group string `json:"group" binding:"required,max=50"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID                 string `json:"id"`
	Code               string `json:"code"`
	Name               string `json:"name"`
	Group              string `json:"group"`
	IsSystemPermission bool   `json:"is_system_permission"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, actor domain.Actor, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, actor domain.Actor, id string) error
	UpdateRolePermissions(ctx context.Context, actor domain.Actor, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error)
	DeletePermission(ctx context.Context, actor domain.Actor, id string) error
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	repo      repository.RoleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	cache     cache.PermissionCache
	log       *zap.Logger
}

func NewRoleService(
	repo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	permCache cache.PermissionCache,
	log *zap.Logger,
) RoleService {
	return &roleService{repo: repo, auditRepo: auditRepo, txManager: txManager, cache: permCache, log: log.Named("roles")}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := parseID(id, "de rôle")
	if err != nil {
		return nil, err
	}
	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func parsePermissionIDs(ids []string) ([]uuid.UUID, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, pid := range ids {
		id, err := parseID(pid, "de permission")
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, id)
	}
	return parsed, nil
}

func (s *roleService) CreateRole(ctx context.Context, actor domain.Actor, req CreateRoleRequest) (*RoleResponse, error) {
	permIDs, err := parsePermissionIDs(req.Permissions)
	if err != nil {
		return nil, err
	}
	role := model.Role{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsSystem:    false,
	}
	if !domain.Role(role.Name).IsWellFormed() {
		return nil, apperror.Validation("Le nom du rôle doit contenir des minuscules, chiffres ou _ et commencer par une lettre")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &role); err != nil {
			if isDuplicate(err) {
				return apperror.Conflict(fmt.Sprintf("Le rôle %q existe déjà", role.Name))
			}
			return fmt.Errorf("failed to create role: %w", err)
		}
		if len(permIDs) > 0 {
			if err := s.repo.ReplacePermissions(txCtx, role.ID, permIDs); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateRole, role.ID.String(), role.Name, map[string]interface{}{
			"permission_count": len(permIDs),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := parseID(id, "de rôle")
	if err != nil {
		return nil, err
	}
	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	// tokens carry the role name, so system roles keep theirs
	if role.IsSystem && name != role.Name {
		return nil, apperror.Conflict("Impossible de renommer un rôle système")
	}
	if name != role.Name {
		if !domain.Role(name).IsWellFormed() {
			return nil, apperror.Validation("Le nom du rôle doit contenir des minuscules, chiffres ou _ et commencer par une lettre")
		}
		holders, err := s.repo.CountUsersWithRole(ctx, role.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to count role holders: %w", err)
		}
		if holders > 0 {
			return nil, apperror.Conflict("Impossible de renommer un rôle attribué à des utilisateurs")
		}
	}
	oldName := role.Name
	role.Name = name
	role.Description = req.Description

	if err := s.repo.Update(ctx, role); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflict(fmt.Sprintf("Le rôle %q existe déjà", name))
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if oldName != name {
		s.invalidate(ctx, oldName)
	}
	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, actor domain.Actor, id string) error {
	roleID, err := parseID(id, "de rôle")
	if err != nil {
		return err
	}

	var name string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.repo.LockByID(txCtx, roleID)
		if err != nil {
			return err
		}
		if role.IsSystem {
			return domain.ErrSystemRole
		}
		inUse, err := s.repo.CountUsersWithRole(txCtx, role.Name)
		if err != nil {
			return fmt.Errorf("failed to count role users: %w", err)
		}
		if inUse > 0 {
			return apperror.Conflict(fmt.Sprintf("Le rôle %q est attribué à %d utilisateur(s)", role.Name, inUse))
		}
		if err := s.repo.Delete(txCtx, role.ID); err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}
		name = role.Name
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteRole, role.ID.String(), role.Name, nil)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, name)
	return nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, actor domain.Actor, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := parseID(roleID, "de rôle")
	if err != nil {
		return nil, err
	}
	permIDs, err := parsePermissionIDs(req.PermissionIDs)
	if err != nil {
		return nil, err
	}

	var name string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.repo.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.ReplacePermissions(txCtx, role.ID, permIDs); err != nil {
			return fmt.Errorf("failed to update permissions: %w", err)
		}
		name = role.Name
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateRolePerms, role.ID.String(), role.Name, map[string]interface{}{
			"permission_ids": req.PermissionIDs,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, name)
	return s.GetRole(ctx, roleID)
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error) {
	perm := model.Permission{
		Code:  strings.TrimSpace(req.Code),
		Name:  req.Name,
		Group: req.Group,
	}
	if err := s.repo.CreatePermission(ctx, &perm); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflict(fmt.Sprintf("La permission %q existe déjà", perm.Code))
		}
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}
	resp := toPermissionResponse(perm)
	return &resp, nil
}

func (s *roleService) DeletePermission(ctx context.Context, actor domain.Actor, id string) error {
	permID, err := parseID(id, "de permission")
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		perm, err := s.repo.LockPermissionByID(txCtx, permID)
		if err != nil {
			return err
		}
		if err := domain.CanDeletePermission(perm.IsSystemPermission); err != nil {
			s.log.Info("deletion refused", zap.String("entity", "permission"), zap.String("code", perm.Code))
			return err
		}
		if err := s.repo.DeletePermission(txCtx, perm.ID); err != nil {
			return fmt.Errorf("failed to delete permission: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeletePermission, perm.ID.String(), perm.Code, nil)
	})
	if err != nil {
		return err
	}

	// any role may have held it
	s.invalidate(ctx, "")
	return nil
}

func (s *roleService) invalidate(ctx context.Context, role string) {
	if err := s.cache.Invalidate(ctx, role); err != nil {
		s.log.Warn("permission cache invalidation failed", zap.String("role", role), zap.Error(err))
	}
}

// SeedDefaultRolesAndPermissions creates the default permissions and system roles if not already
// present. Default grants are appended, so permissions an admin added to a system role survive.
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		permByCode := make(map[string]uuid.UUID, len(domain.DefaultPermissions))
		for _, def := range domain.DefaultPermissions {
			perm := model.Permission{Code: def.Code, Name: def.Name, Group: def.Group, IsSystemPermission: def.System}
			if err := s.repo.FindOrCreatePermission(txCtx, &perm); err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", def.Code, err)
			}
			permByCode[def.Code] = perm.ID
		}

		for _, roleName := range domain.AllRoles {
			role, err := s.repo.FindByName(txCtx, string(roleName))
			if apperror.IsKind(err, apperror.KindNotFound) {
				role = &model.Role{Name: string(roleName), Description: roleDescriptions[roleName], IsSystem: true}
				if err := s.repo.Create(txCtx, role); err != nil {
					return fmt.Errorf("failed to seed role '%s': %w", roleName, err)
				}
			} else if err != nil {
				return fmt.Errorf("failed to look up role '%s': %w", roleName, err)
			}

			codes := domain.DefaultRoleGrants[roleName]
			if len(codes) == 0 {
				continue
			}
			ids := make([]uuid.UUID, 0, len(codes))
			for _, code := range codes {
				if id, ok := permByCode[code]; ok {
					ids = append(ids, id)
				}
			}
			if err := s.repo.AssociatePermissions(txCtx, role.ID, ids); err != nil {
				return fmt.Errorf("failed to assign permissions to role '%s': %w", roleName, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, "")
	s.log.Info("default roles and permissions seeded",
		zap.Int("permissions", len(domain.DefaultPermissions)),
		zap.Int("roles", len(domain.AllRoles)))
	return nil
}

var roleDescriptions = map[domain.Role]string{
	domain.RoleUser:       "Utilisateur inscrit",
	domain.RoleOwner:      "Propriétaire publiant des annonces",
	domain.RoleTenant:     "Locataire effectuant des réservations",
	domain.RoleAdmin:      "Administrateur de la plateforme",
	domain.RoleSuperAdmin: "Super administrateur, toutes les permissions",
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format(timeLayout),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:                 p.ID.String(),
		Code:               p.Code,
		Name:               p.Name,
		Group:              p.Group,
		IsSystemPermission: p.IsSystemPermission,
	}
}
