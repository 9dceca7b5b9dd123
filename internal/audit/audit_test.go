package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

func newTestRecorder(t *testing.T) (Recorder, *gorm.DB) {
	t.Helper()
	dsn := "file:audit_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		t.Fatalf("migrate tables: %v", err)
	}
	recorder, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	return recorder, db
}

func TestRecordUpdateKeepsOnlyChangedFieldsInDelta(t *testing.T) {
	t.Parallel()

	recorder, _ := newTestRecorder(t)
	ctx := context.Background()

	err := recorder.Record(ctx, nil, RecordInput{
		TableName: "transfer",
		RowID:     42,
		Operation: enums.ActionTypeUpdate,
		Old:       map[string]any{"quantity": 300, "price_per_unit": "425.00", "current_status": "Draft"},
		New:       map[string]any{"quantity": 250, "price_per_unit": "425.00", "current_status": "Draft"},
		UserID:    "seller1",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	rows, err := recorder.ListForRow(ctx, "transfer", 42)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(rows))
	}

	var delta map[string]any
	if err := json.Unmarshal(rows[0].Delta, &delta); err != nil {
		t.Fatalf("unmarshal delta: %v", err)
	}
	if len(delta) != 1 {
		t.Fatalf("delta keys = %v, want only quantity", delta)
	}
	if delta["quantity"] != float64(250) {
		t.Fatalf("delta quantity = %v, want 250", delta["quantity"])
	}
	if rows[0].CreateUser != "seller1" {
		t.Fatalf("create user = %q, want seller1", rows[0].CreateUser)
	}
}

func TestRecordCreateAndDeleteSkipDelta(t *testing.T) {
	t.Parallel()

	recorder, _ := newTestRecorder(t)
	ctx := context.Background()

	if err := recorder.Record(ctx, nil, RecordInput{
		TableName: "transfer",
		RowID:     7,
		Operation: enums.ActionTypeCreate,
		New:       map[string]any{"quantity": 300},
		UserID:    "seller1",
	}); err != nil {
		t.Fatalf("record create: %v", err)
	}
	if err := recorder.Record(ctx, nil, RecordInput{
		TableName: "transfer",
		RowID:     7,
		Operation: enums.ActionTypeDelete,
		Old:       map[string]any{"quantity": 300},
		UserID:    "seller1",
	}); err != nil {
		t.Fatalf("record delete: %v", err)
	}

	rows, err := recorder.ListForRow(ctx, "transfer", 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("audit rows = %d, want 2", len(rows))
	}
	if rows[0].OldValues != nil || rows[0].NewValues == nil {
		t.Fatalf("create row snapshots wrong: old=%s new=%s", rows[0].OldValues, rows[0].NewValues)
	}
	if rows[1].OldValues == nil || rows[1].NewValues != nil {
		t.Fatalf("delete row snapshots wrong: old=%s new=%s", rows[1].OldValues, rows[1].NewValues)
	}
	if rows[0].Delta != nil || rows[1].Delta != nil {
		t.Fatalf("create/delete rows should carry no delta")
	}
}

func TestRecordJoinsCallerTransaction(t *testing.T) {
	t.Parallel()

	recorder, db := newTestRecorder(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := recorder.Record(ctx, tx, RecordInput{
			TableName: "transfer",
			RowID:     9,
			Operation: enums.ActionTypeCreate,
			New:       map[string]any{"quantity": 100},
			UserID:    "seller1",
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	if err == nil {
		t.Fatalf("expected transaction rollback error")
	}

	rows, err := recorder.ListForRow(ctx, "transfer", 9)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("audit rows = %d, want 0 after rollback", len(rows))
	}
}
