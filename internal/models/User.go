package models

import "gorm.io/gorm"

// Roles a user can hold. A SITE_MANAGER runs exactly one site, a DRIVER
// only ever acts on routes assigned to them.
const (
	RoleAdmin       = "ADMIN"
	RoleSiteManager = "SITE_MANAGER"
	RoleDriver      = "DRIVER"
)

var UserRoles = []string{RoleAdmin, RoleSiteManager, RoleDriver}

func IsValidRole(role string) bool {
	for _, r := range UserRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"-"`
	Role     string `json:"role"`
	Active   bool   `json:"active" gorm:"default:true"`

	// Site the user is attached to as staff (managers point at the site
	// they run). Nullable: admins and unassigned users have none.
	SiteID *uint `json:"site_id"`
	Site   *Site `gorm:"foreignKey:SiteID" json:"site,omitempty"`
}
