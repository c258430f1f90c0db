// internal/pkg/dbutil/locking.go
package dbutil

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate adds a row-level locking clause on dialects that support
// it. SQLite serializes writers at the database level, so the clause
// is omitted there.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
