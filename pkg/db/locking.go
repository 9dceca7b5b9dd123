package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate adds a row-level FOR UPDATE lock on Postgres. SQLite (used in
// tests) has no row locks and rejects the clause; writes there already
// serialize on the database handle.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
