package repository

import (
	"context"

	"elocation/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
	ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error
	AssociatePermissions(ctx context.Context, roleID uuid.UUID, permIDs []uuid.UUID) error
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	CountUsersWithRole(ctx context.Context, roleName string) (int64, error)

	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindPermissionByID(ctx context.Context, id uuid.UUID) (*model.Permission, error)
	LockPermissionByID(ctx context.Context, id uuid.UUID) (*model.Permission, error)
	CreatePermission(ctx context.Context, perm *model.Permission) error
	FindOrCreatePermission(ctx context.Context, perm *model.Permission) error
	DeletePermission(ctx context.Context, id uuid.UUID) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Omit("Permissions").Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Omit("Permissions").Save(role).Error
}

// Delete drops the join rows first so the many2many table holds no dangling ids
func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Role{ID: id}).Association("Permissions").Clear(); err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Role{}).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Rôle")
	}
	return &role, nil
}

func (r *roleRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := forUpdate(GetDB(ctx, r.db)).First(&role, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Rôle")
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err, "Rôle")
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Order("created_at asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	var role model.Role
	if err := db.First(&role, "id = ?", roleID).Error; err != nil {
		return translate(err, "Rôle")
	}

	perms := []model.Permission{}
	if len(permissionIDs) > 0 {
		if err := db.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
			return err
		}
	}
	return db.Model(&role).Association("Permissions").Replace(perms)
}

func (r *roleRepository) AssociatePermissions(ctx context.Context, roleID uuid.UUID, permIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	var role model.Role
	if err := db.First(&role, "id = ?", roleID).Error; err != nil {
		return translate(err, "Rôle")
	}

	var perms []model.Permission
	if err := db.Where("id IN ?", permIDs).Find(&perms).Error; err != nil {
		return err
	}
	return db.Model(&role).Association("Permissions").Append(perms)
}

// GetPermissionsByRoleName returns the permission codes granted to a role, or none for an unknown role
func (r *roleRepository) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	var codes []string
	err := GetDB(ctx, r.db).Table("permissions").
		Select("permissions.code").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Where("roles.name = ?", roleName).
		Order("permissions.code").
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *roleRepository) CountUsersWithRole(ctx context.Context, roleName string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("role = ?", roleName).Count(&count).Error
	return count, err
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("\"group\" asc, name asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) FindPermissionByID(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Permission")
	}
	return &perm, nil
}

func (r *roleRepository) LockPermissionByID(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	var perm model.Permission
	if err := forUpdate(GetDB(ctx, r.db)).First(&perm, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Permission")
	}
	return &perm, nil
}

func (r *roleRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *roleRepository) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).
		Where("code = ?", perm.Code).
		Attrs(model.Permission{Name: perm.Name, Group: perm.Group, IsSystemPermission: perm.IsSystemPermission}).
		FirstOrCreate(perm).Error
}

func (r *roleRepository) DeletePermission(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Exec("DELETE FROM role_permissions WHERE permission_id = ?", id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Permission{}).Error
}
