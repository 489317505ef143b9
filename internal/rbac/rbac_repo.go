package rbac

import "gorm.io/gorm"

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetMemberRoles(orgID string) ([]MemberRoleRow, error)
	GetRolePermissions(orgID string) ([]RolePermissionRow, error)

	ListRoles(orgID string) ([]RoleRow, error)
	GetPermissionsByRoleID(roleID string) ([]PermissionRow, error)
	ListPermissions() ([]PermissionRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type RoleRow struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrgID       string `gorm:"type:uuid"`
	Name        string
	Description string
	CreatedAt   string
	UpdatedAt   string
}

type PermissionRow struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Resource string
	Action   string
	Label    string
	Category string
}

type MemberRoleRow struct {
	UserID string
	RoleID string
}

type RolePermissionRow struct {
	RoleID   string
	Resource string
	Action   string
}

func (r *repository) GetMemberRoles(orgID string) ([]MemberRoleRow, error) {
	var result []MemberRoleRow

	err := r.db.
		Table("member_roles").
		Select("member_roles.user_id, member_roles.role_id").
		Joins("JOIN roles ON roles.id = member_roles.role_id").
		Where("roles.org_id = ?", orgID).
		Scan(&result).Error

	return result, err
}

func (r *repository) GetRolePermissions(orgID string) ([]RolePermissionRow, error) {
	var result []RolePermissionRow

	err := r.db.
		Table("role_permissions").
		Select("role_permissions.role_id, permissions.resource, permissions.action").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("roles.org_id = ?", orgID).
		Scan(&result).Error

	return result, err
}

func (r *repository) ListRoles(orgID string) ([]RoleRow, error) {
	var result []RoleRow
	err := r.db.Where("org_id = ?", orgID).Order("name").Find(&result).Error
	return result, err
}

func (r *repository) GetPermissionsByRoleID(roleID string) ([]PermissionRow, error) {
	var result []PermissionRow
	err := r.db.
		Table("permissions").
		Select("permissions.*").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Scan(&result).Error
	return result, err
}

func (r *repository) ListPermissions() ([]PermissionRow, error) {
	var result []PermissionRow
	err := r.db.Order("category, label").Find(&result).Error
	return result, err
}
