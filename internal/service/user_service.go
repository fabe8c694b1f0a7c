package service

import (
	"context"
	"fmt"
	"strings"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/metrics"
	"elocation/internal/model"
	"elocation/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=20"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UserListQuery struct {
	Role     string
	IsActive *bool
	Search   string
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt string    `json:"created_at"`
}

// MeResponse adds the effective permissions of the caller
type MeResponse struct {
	UserResponse
	Permissions    []string `json:"permissions"`
	AllPermissions bool     `json:"all_permissions"`
}

type UserService interface {
	ListUsers(ctx context.Context, q UserListQuery, page, limit int) ([]UserResponse, int64, error)
	GetUser(ctx context.Context, id string) (*UserResponse, error)
	Me(ctx context.Context, actor domain.Actor, caps domain.CapabilitySet) (*MeResponse, error)
	CreateUser(ctx context.Context, actor domain.Actor, req CreateUserRequest) (*UserResponse, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, id string, req UpdateProfileRequest) (*UserResponse, error)
	SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (*UserResponse, error)
	ChangeRole(ctx context.Context, actor domain.Actor, id string, role string) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor domain.Actor, id string) error
}

type userService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	guard     *domain.IntegrityGuard
	metrics   *metrics.Manager
	log       *zap.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	guard *domain.IntegrityGuard,
	m *metrics.Manager,
	log *zap.Logger,
) UserService {
	return &userService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		guard:     guard,
		metrics:   m,
		log:       log.Named("users"),
	}
}

func (s *userService) ListUsers(ctx context.Context, q UserListQuery, page, limit int) ([]UserResponse, int64, error) {
	filter := repository.UserFilter{IsActive: q.IsActive, Search: strings.TrimSpace(q.Search)}
	if q.Role != "" {
		role := domain.Role(q.Role)
		if !role.IsWellFormed() {
			return nil, 0, apperror.Validation(fmt.Sprintf("rôle inconnu: %q", q.Role))
		}
		filter.Role = role
	}

	users, total, err := s.userRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toUserResponse(u))
	}
	return res, total, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := parseID(id, "d'utilisateur")
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(*user)
	return &resp, nil
}

func (s *userService) Me(ctx context.Context, actor domain.Actor, caps domain.CapabilitySet) (*MeResponse, error) {
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return &MeResponse{
		UserResponse:   toUserResponse(*user),
		Permissions:    caps.Codes(),
		AllPermissions: caps.All(),
	}, nil
}

// checkRoleGrant resolves role against the roles table and stops anyone but a super_admin
// from handing out super_admin. Built-in roles are always seeded.
func (s *userService) checkRoleGrant(ctx context.Context, actor domain.Actor, role domain.Role) error {
	if !role.IsWellFormed() {
		return apperror.Validation(fmt.Sprintf("rôle inconnu: %q", role))
	}
	if role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return apperror.Forbidden("Seul un super administrateur peut attribuer ce rôle")
	}
	if role.IsBuiltin() {
		return nil
	}
	if _, err := s.roleRepo.FindByName(ctx, string(role)); err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return apperror.Validation(fmt.Sprintf("rôle inconnu: %q", role))
		}
		return fmt.Errorf("failed to look up role: %w", err)
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, actor domain.Actor, req CreateUserRequest) (*UserResponse, error) {
	role := domain.RoleUser
	if req.Role != "" {
		role = domain.Role(req.Role)
	}
	if err := s.checkRoleGrant(ctx, actor, role); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.userRepo.ExistsByEmailOrUsername(ctx, email, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if exists {
		return nil, apperror.Conflict("Un utilisateur avec cet email ou ce nom existe déjà")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    email,
		Phone:    req.Phone,
		Password: string(hashedPassword),
		Role:     role,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflict("Un utilisateur avec cet email ou ce nom existe déjà")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	resp := toUserResponse(*user)
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor domain.Actor, id string, req UpdateProfileRequest) (*UserResponse, error) {
	userID, err := parseID(id, "d'utilisateur")
	if err != nil {
		return nil, err
	}
	if !domain.CanActOn(actor, userID) {
		return nil, apperror.Forbidden("You can only update your own profile")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflict("Ce nom d'utilisateur est déjà pris")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	resp := toUserResponse(*user)
	return &resp, nil
}

func (s *userService) SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (*UserResponse, error) {
	userID, err := parseID(id, "d'utilisateur")
	if err != nil {
		return nil, err
	}
	if userID == actor.ID && !active {
		return nil, apperror.Validation("Vous ne pouvez pas désactiver votre propre compte")
	}

	var user *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.userRepo.LockByID(txCtx, userID)
		if err != nil {
			return err
		}
		if err := s.userRepo.SetActive(txCtx, u.ID, active); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		u.IsActive = active
		user = u
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionSetUserActive, u.ID.String(), u.Username, map[string]interface{}{
			"is_active": active,
		})
	})
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(*user)
	return &resp, nil
}

func (s *userService) ChangeRole(ctx context.Context, actor domain.Actor, id string, role string) (*UserResponse, error) {
	userID, err := parseID(id, "d'utilisateur")
	if err != nil {
		return nil, err
	}
	newRole := domain.Role(role)
	if err := s.checkRoleGrant(ctx, actor, newRole); err != nil {
		return nil, err
	}

	var user *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.userRepo.LockByID(txCtx, userID)
		if err != nil {
			return err
		}
		if u.Role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
			return apperror.Forbidden("Seul un super administrateur peut modifier ce compte")
		}
		previous := u.Role
		u.Role = newRole
		if err := s.userRepo.Update(txCtx, u); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		user = u
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionChangeUserRole, u.ID.String(), u.Username, map[string]interface{}{
			"from": previous,
			"to":   newRole,
		})
	})
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(*user)
	return &resp, nil
}

// DeleteUser runs lock, integrity check and delete in one transaction
func (s *userService) DeleteUser(ctx context.Context, actor domain.Actor, id string) error {
	userID, err := parseID(id, "d'utilisateur")
	if err != nil {
		return err
	}
	if userID == actor.ID {
		return apperror.Validation("Vous ne pouvez pas supprimer votre propre compte")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.userRepo.LockByID(txCtx, userID)
		if err != nil {
			return err
		}
		if user.Role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
			return apperror.Forbidden("Seul un super administrateur peut supprimer ce compte")
		}
		if err := guardDelete(txCtx, s.guard, s.metrics, s.log, actor, domain.EntityUser, user.ID); err != nil {
			return err
		}
		if err := s.userRepo.Delete(txCtx, user.ID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteUser, user.ID.String(), user.Username, map[string]interface{}{
			"email": user.Email,
			"role":  user.Role,
		})
	})
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(timeLayout),
	}
}
