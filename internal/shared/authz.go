package shared

// Newsroom permissions. Slugs follow the resource.action convention.
const (
	PermNewsView    = "news.view"
	PermNewsCreate  = "news.create"
	PermNewsUpdate  = "news.update"
	PermNewsDelete  = "news.delete"
	PermNewsPublish = "news.publish"

	PermCategoryView = "category.view"
	PermCategoryEdit = "category.edit"

	PermMediaView   = "media.view"
	PermMediaUpload = "media.upload"

	PermAdsView = "ads.view"
	PermAdsEdit = "ads.edit"
)

// Administration permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"

	PermMenusView = "menus.view"
	PermMenusEdit = "menus.edit"

	PermAuditView = "audit.view"
)

// NewsroomScopes lists editorial permissions.
func NewsroomScopes() []string {
	return []string{
		PermNewsView,
		PermNewsCreate,
		PermNewsUpdate,
		PermNewsDelete,
		PermNewsPublish,
		PermCategoryView,
		PermCategoryEdit,
		PermMediaView,
		PermMediaUpload,
		PermAdsView,
		PermAdsEdit,
	}
}

// AdminScopes lists dashboard administration permissions.
func AdminScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
		PermMenusView,
		PermMenusEdit,
		PermAuditView,
	}
}
