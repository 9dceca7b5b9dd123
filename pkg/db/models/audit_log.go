package models

import (
	"encoding/json"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// AuditLog records one mutation to an audited row. Delta holds only the
// changed fields, old and new values hold full snapshots.
type AuditLog struct {
	ID        int64            `gorm:"column:audit_log_id;primaryKey;autoIncrement"`
	Table     string           `gorm:"column:table_name;not null;index:ix_audit_log_table_row,priority:1"`
	RowID     int64            `gorm:"column:row_id;not null;index:ix_audit_log_table_row,priority:2"`
	Operation enums.ActionType `gorm:"column:operation;not null"`
	OldValues json.RawMessage  `gorm:"column:old_values;type:jsonb"`
	NewValues json.RawMessage  `gorm:"column:new_values;type:jsonb"`
	Delta     json.RawMessage  `gorm:"column:delta;type:jsonb"`

	AuditStamps
}

func (AuditLog) TableName() string { return "audit_log" }
