package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// Recorder writes audit rows inside the caller's transaction, so an audited
// mutation and its trail commit or roll back together.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) error
	ListForRow(ctx context.Context, table string, rowID int64) ([]models.AuditLog, error)
}

// RecordInput captures one mutation. Old is nil on create, New is nil on
// delete; both snapshots must be JSON-serializable.
type RecordInput struct {
	TableName string
	RowID     int64
	Operation enums.ActionType
	Old       any
	New       any
	UserID    string
}

type recorder struct {
	db *gorm.DB
}

// NewRecorder binds a GORM DB to audit writes.
func NewRecorder(db *gorm.DB) (Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &recorder{db: db}, nil
}

func (r *recorder) Record(ctx context.Context, tx *gorm.DB, input RecordInput) error {
	if input.TableName == "" || input.RowID <= 0 {
		return fmt.Errorf("audit record requires table name and row id")
	}
	db := r.db
	if tx != nil {
		db = tx
	}

	oldJSON, oldMap, err := snapshot(input.Old)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}
	newJSON, newMap, err := snapshot(input.New)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}

	var delta json.RawMessage
	if oldMap != nil && newMap != nil {
		changed := diff(oldMap, newMap)
		if len(changed) > 0 {
			delta, err = json.Marshal(changed)
			if err != nil {
				return fmt.Errorf("marshal delta: %w", err)
			}
		}
	}

	row := &models.AuditLog{
		Table:     input.TableName,
		RowID:     input.RowID,
		Operation: input.Operation,
		OldValues: oldJSON,
		NewValues: newJSON,
		Delta:     delta,
		AuditStamps: models.AuditStamps{
			CreateUser: input.UserID,
			UpdateUser: input.UserID,
		},
	}
	return db.WithContext(ctx).Create(row).Error
}

func (r *recorder) ListForRow(ctx context.Context, table string, rowID int64) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	if err := r.db.WithContext(ctx).
		Where("table_name = ? AND row_id = ?", table, rowID).
		Order("audit_log_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// snapshot renders the value as JSON plus a generic map for field comparison.
func snapshot(value any) (json.RawMessage, map[string]any, error) {
	if value == nil {
		return nil, nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, err
	}
	return raw, fields, nil
}

// diff returns the new value of every field that changed, keyed by field
// name. Fields present only on one side count as changed.
func diff(oldFields, newFields map[string]any) map[string]any {
	changed := make(map[string]any)
	for key, newValue := range newFields {
		oldValue, ok := oldFields[key]
		if !ok || !reflect.DeepEqual(oldValue, newValue) {
			changed[key] = newValue
		}
	}
	for key := range oldFields {
		if _, ok := newFields[key]; !ok {
			changed[key] = nil
		}
	}
	return changed
}
