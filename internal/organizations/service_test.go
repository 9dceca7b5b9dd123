package organizations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orgs_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Organization{}); err != nil {
		t.Fatalf("migrate organization: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateAndRegisterOrganization(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	org, err := svc.Create(ctx, CreateOrganizationInput{
		Name:               "Pacific Fuels Ltd",
		Type:               "fuel_supplier",
		EarlyIssuanceYears: []int64{2025},
	})
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}
	if org.Status != enums.OrgStatusUnregistered {
		t.Fatalf("status = %s, want Unregistered", org.Status)
	}

	if _, err := svc.RequireRegistered(ctx, org.ID); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for unregistered org, got %v", err)
	}

	registered, err := svc.SetStatus(ctx, org.ID, enums.OrgStatusRegistered)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if registered.Status != enums.OrgStatusRegistered {
		t.Fatalf("status = %s, want Registered", registered.Status)
	}
	if _, err := svc.RequireRegistered(ctx, org.ID); err != nil {
		t.Fatalf("require registered: %v", err)
	}
}

func TestCreateOrganizationValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))

	if _, err := svc.Create(context.Background(), CreateOrganizationInput{}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetMissingOrganization(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))

	if _, err := svc.Get(context.Background(), 404); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAllowsQuarterly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	org, err := svc.Create(ctx, CreateOrganizationInput{
		Name:               "Early Issuance Co",
		EarlyIssuanceYears: []int64{2024, 2025},
	})
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}

	ok, err := svc.AllowsQuarterly(ctx, org.ID, 2025)
	if err != nil {
		t.Fatalf("allows quarterly: %v", err)
	}
	if !ok {
		t.Fatalf("expected quarterly reporting allowed for 2025")
	}

	ok, err = svc.AllowsQuarterly(ctx, org.ID, 2023)
	if err != nil {
		t.Fatalf("allows quarterly: %v", err)
	}
	if ok {
		t.Fatalf("expected quarterly reporting denied for 2023")
	}
}

func TestLockForUpdateOrdersAscending(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"A", "B", "C"} {
		org := models.Organization{Name: name, Status: enums.OrgStatusRegistered}
		if err := db.Create(&org).Error; err != nil {
			t.Fatalf("seed org: %v", err)
		}
		ids = append(ids, org.ID)
	}

	locked, err := repo.LockForUpdate(ctx, ids[2], ids[0], ids[1])
	if err != nil {
		t.Fatalf("lock for update: %v", err)
	}
	if len(locked) != 3 {
		t.Fatalf("locked %d orgs, want 3", len(locked))
	}
	for i := 1; i < len(locked); i++ {
		if locked[i-1].ID >= locked[i].ID {
			t.Fatalf("rows not in ascending id order: %v", []int64{locked[i-1].ID, locked[i].ID})
		}
	}
}
