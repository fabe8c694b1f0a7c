package domain

// Permission codes checked by the HTTP layer
const (
	PermDashboardRead      = "dashboard.read"
	PermUsersRead          = "users.read"
	PermUsersWrite         = "users.write"
	PermUsersDelete        = "users.delete"
	PermAdsModerate        = "ads.moderate"
	PermBookingsRead       = "bookings.read"
	PermCategoriesManage   = "categories.manage"
	PermReviewsModerate    = "reviews.moderate"
	PermReportsManage      = "reports.manage"
	PermRolesManage        = "roles.manage"
	PermAuditRead          = "audit.read"
	PermEmailTemplatesEdit = "email_templates.manage"
)

// PermissionDef describes a seeded permission
type PermissionDef struct {
	Code   string
	Name   string
	Group  string
	System bool
}

// DefaultPermissions are seeded at startup. System ones cannot be deleted.
var DefaultPermissions = []PermissionDef{
	{PermDashboardRead, "Voir le tableau de bord", "dashboard", false},
	{PermUsersRead, "Voir les utilisateurs", "users", false},
	{PermUsersWrite, "Gérer les utilisateurs", "users", true},
	{PermUsersDelete, "Supprimer des utilisateurs", "users", true},
	{PermAdsModerate, "Modérer les annonces", "ads", false},
	{PermBookingsRead, "Voir toutes les réservations", "bookings", false},
	{PermCategoriesManage, "Gérer les catégories", "categories", false},
	{PermReviewsModerate, "Modérer les avis", "reviews", false},
	{PermReportsManage, "Traiter les signalements", "reports", false},
	{PermRolesManage, "Gérer les rôles et permissions", "roles", true},
	{PermAuditRead, "Voir le journal d'audit", "audit", false},
	{PermEmailTemplatesEdit, "Gérer les modèles d'email", "email", false},
}

// DefaultRoleGrants maps system roles to their seeded permission codes. super_admin needs
// no grants since it holds every capability.
var DefaultRoleGrants = map[Role][]string{
	RoleAdmin: {
		PermDashboardRead, PermUsersRead, PermUsersWrite, PermUsersDelete,
		PermAdsModerate, PermBookingsRead, PermCategoriesManage, PermReviewsModerate,
		PermReportsManage, PermAuditRead, PermEmailTemplatesEdit,
	},
	RoleSuperAdmin: {},
	RoleOwner:      {},
	RoleTenant:     {},
	RoleUser:       {},
}
