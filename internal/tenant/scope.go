package tenant

import "gorm.io/gorm"

// Scope restricts a query to one org. Every repository query on org-owned
// tables goes through this, so a missing org filter shows up in review as a
// missing Scopes call rather than a subtle WHERE clause difference.
func Scope(orgID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("org_id = ?", orgID)
	}
}
