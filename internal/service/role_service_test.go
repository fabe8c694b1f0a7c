package service

import (
	"context"
	"testing"
	"time"

	"elocation/internal/apperror"
	"elocation/internal/cache"
	"elocation/internal/domain"
	"elocation/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRoleFixture() (*MockRoleRepository, *MockAuditRepository, *cache.MemoryCache, RoleService) {
	repo := new(MockRoleRepository)
	audit := new(MockAuditRepository)
	permCache := cache.NewMemoryCache(time.Minute)
	return repo, audit, permCache, NewRoleService(repo, audit, inlineTx{}, permCache, zap.NewNop())
}

func cached(t *testing.T, c *cache.MemoryCache, role string) bool {
	t.Helper()
	_, found, err := c.Get(context.Background(), role)
	require.NoError(t, err)
	return found
}

func TestDeleteRole(t *testing.T) {
	actor := domain.Actor{ID: uuid.New(), Role: domain.RoleSuperAdmin}

	t.Run("system role", func(t *testing.T) {
		repo, _, _, svc := newRoleFixture()
		role := &model.Role{ID: uuid.New(), Name: "admin", IsSystem: true}
		repo.On("LockByID", mock.Anything, role.ID).Return(role, nil)

		err := svc.DeleteRole(context.Background(), actor, role.ID.String())

		assert.ErrorIs(t, err, domain.ErrSystemRole)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("role in use", func(t *testing.T) {
		repo, _, _, svc := newRoleFixture()
		role := &model.Role{ID: uuid.New(), Name: "moderator"}
		repo.On("LockByID", mock.Anything, role.ID).Return(role, nil)
		repo.On("CountUsersWithRole", mock.Anything, "moderator").Return(int64(2), nil)

		err := svc.DeleteRole(context.Background(), actor, role.ID.String())

		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("unused custom role", func(t *testing.T) {
		repo, audit, permCache, svc := newRoleFixture()
		role := &model.Role{ID: uuid.New(), Name: "moderator"}
		require.NoError(t, permCache.Set(context.Background(), "moderator", []string{"reviews.moderate"}))
		repo.On("LockByID", mock.Anything, role.ID).Return(role, nil)
		repo.On("CountUsersWithRole", mock.Anything, "moderator").Return(int64(0), nil)
		repo.On("Delete", mock.Anything, role.ID).Return(nil)
		audit.On("Log", mock.Anything, auditAction(model.ActionDeleteRole)).Return(nil)

		require.NoError(t, svc.DeleteRole(context.Background(), actor, role.ID.String()))
		assert.False(t, cached(t, permCache, "moderator"))
	})
}

func TestUpdateRole_SystemRoleKeepsName(t *testing.T) {
	repo, _, _, svc := newRoleFixture()
	role := &model.Role{ID: uuid.New(), Name: "owner", IsSystem: true}
	repo.On("FindByID", mock.Anything, role.ID).Return(role, nil)

	_, err := svc.UpdateRole(context.Background(), role.ID.String(), UpdateRoleRequest{Name: "landlord"})

	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateRolePermissions_InvalidatesRole(t *testing.T) {
	repo, audit, permCache, svc := newRoleFixture()
	role := &model.Role{ID: uuid.New(), Name: "admin", IsSystem: true}
	permID := uuid.New()
	ctx := context.Background()
	require.NoError(t, permCache.Set(ctx, "admin", []string{"users.read"}))
	require.NoError(t, permCache.Set(ctx, "owner", []string{}))

	repo.On("LockByID", mock.Anything, role.ID).Return(role, nil)
	repo.On("ReplacePermissions", mock.Anything, role.ID, []uuid.UUID{permID}).Return(nil)
	repo.On("FindByID", mock.Anything, role.ID).Return(role, nil)
	audit.On("Log", mock.Anything, auditAction(model.ActionUpdateRolePerms)).Return(nil)

	_, err := svc.UpdateRolePermissions(ctx, domain.Actor{ID: uuid.New(), Role: domain.RoleSuperAdmin}, role.ID.String(),
		UpdateRolePermissionsRequest{PermissionIDs: []string{permID.String()}})

	require.NoError(t, err)
	assert.False(t, cached(t, permCache, "admin"))
	assert.True(t, cached(t, permCache, "owner"))
}

func TestUpdateRolePermissions_RejectsBadIDs(t *testing.T) {
	_, _, _, svc := newRoleFixture()
	_, err := svc.UpdateRolePermissions(context.Background(), domain.Actor{}, uuid.NewString(),
		UpdateRolePermissionsRequest{PermissionIDs: []string{"nope"}})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestDeletePermission(t *testing.T) {
	actor := domain.Actor{ID: uuid.New(), Role: domain.RoleSuperAdmin}

	t.Run("system permission", func(t *testing.T) {
		repo, _, _, svc := newRoleFixture()
		perm := &model.Permission{ID: uuid.New(), Code: "users.write", IsSystemPermission: true}
		repo.On("LockPermissionByID", mock.Anything, perm.ID).Return(perm, nil)

		err := svc.DeletePermission(context.Background(), actor, perm.ID.String())

		assert.ErrorIs(t, err, domain.ErrSystemPermission)
		repo.AssertNotCalled(t, "DeletePermission", mock.Anything, mock.Anything)
	})

	t.Run("custom permission clears every role", func(t *testing.T) {
		repo, audit, permCache, svc := newRoleFixture()
		ctx := context.Background()
		require.NoError(t, permCache.Set(ctx, "admin", []string{"export.csv"}))
		require.NoError(t, permCache.Set(ctx, "owner", []string{"export.csv"}))
		perm := &model.Permission{ID: uuid.New(), Code: "export.csv"}
		repo.On("LockPermissionByID", mock.Anything, perm.ID).Return(perm, nil)
		repo.On("DeletePermission", mock.Anything, perm.ID).Return(nil)
		audit.On("Log", mock.Anything, auditAction(model.ActionDeletePermission)).Return(nil)

		require.NoError(t, svc.DeletePermission(ctx, actor, perm.ID.String()))
		assert.False(t, cached(t, permCache, "admin"))
		assert.False(t, cached(t, permCache, "owner"))
	})
}

func TestSeedDefaultRolesAndPermissions(t *testing.T) {
	repo, _, _, svc := newRoleFixture()

	repo.On("FindOrCreatePermission", mock.Anything, mock.AnythingOfType("*model.Permission")).Return(nil)
	// admin already exists; the other system roles are created
	existing := &model.Role{ID: uuid.New(), Name: string(domain.RoleAdmin), IsSystem: true}
	repo.On("FindByName", mock.Anything, string(domain.RoleAdmin)).Return(existing, nil)
	repo.On("FindByName", mock.Anything, mock.Anything).Return(nil, apperror.NotFound("Rôle introuvable"))
	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *model.Role) bool { return r.IsSystem })).Return(nil)
	repo.On("AssociatePermissions", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.SeedDefaultRolesAndPermissions(context.Background()))

	repo.AssertNumberOfCalls(t, "FindOrCreatePermission", len(domain.DefaultPermissions))
	repo.AssertNumberOfCalls(t, "Create", len(domain.AllRoles)-1)
	repo.AssertCalled(t, "AssociatePermissions", mock.Anything, existing.ID, mock.MatchedBy(func(ids []uuid.UUID) bool {
		return len(ids) == len(domain.DefaultRoleGrants[domain.RoleAdmin])
	}))

	granted := 0
	for _, role := range domain.AllRoles {
		if len(domain.DefaultRoleGrants[role]) > 0 {
			granted++
		}
	}
	repo.AssertNumberOfCalls(t, "AssociatePermissions", granted)
}

func TestCreateRole(t *testing.T) {
	actor := domain.Actor{ID: uuid.New(), Role: domain.RoleSuperAdmin}

	t.Run("malformed name", func(t *testing.T) {
		repo, _, _, svc := newRoleFixture()

		_, err := svc.CreateRole(context.Background(), actor, CreateRoleRequest{Name: "Mod Team"})

		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("custom role", func(t *testing.T) {
		repo, audit, _, svc := newRoleFixture()
		repo.On("Create", mock.Anything, mock.MatchedBy(func(r *model.Role) bool {
			return r.Name == "moderator" && !r.IsSystem
		})).Return(nil)
		audit.On("Log", mock.Anything, auditAction(model.ActionCreateRole)).Return(nil)
		repo.On("FindByID", mock.Anything, mock.Anything).Return(&model.Role{ID: uuid.New(), Name: "moderator"}, nil)

		resp, err := svc.CreateRole(context.Background(), actor, CreateRoleRequest{Name: " moderator "})

		require.NoError(t, err)
		assert.Equal(t, "moderator", resp.Name)
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "ReplacePermissions", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateRole_RenameHeldCustomRole(t *testing.T) {
	repo, _, _, svc := newRoleFixture()
	role := &model.Role{ID: uuid.New(), Name: "moderator"}
	repo.On("FindByID", mock.Anything, role.ID).Return(role, nil)
	repo.On("CountUsersWithRole", mock.Anything, "moderator").Return(int64(2), nil)

	_, err := svc.UpdateRole(context.Background(), role.ID.String(), UpdateRoleRequest{Name: "curator"})

	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
