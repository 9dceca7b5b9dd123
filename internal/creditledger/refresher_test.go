package creditledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/internal/organizations"
	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/logger"
)

var _ Service = (*stubRebuilder)(nil)

type stubLocker struct {
	held    map[string]bool
	setKeys []string
	delKeys []string
}

func (l *stubLocker) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	l.setKeys = append(l.setKeys, key)
	return !l.held[key], nil
}

func (l *stubLocker) Del(_ context.Context, keys ...string) error {
	l.delKeys = append(l.delKeys, keys...)
	return nil
}

func (l *stubLocker) LockKey(scope string, id int64) string {
	return fmt.Sprintf("lcfs:lock:%s:%d", scope, id)
}

type stubRebuilder struct {
	calls     int
	failUntil int
}

func (s *stubRebuilder) Rebuild(context.Context, int64) (int, error) {
	s.calls++
	if s.calls <= s.failUntil {
		return 0, errors.New("transient rebuild failure")
	}
	return 1, nil
}

func (s *stubRebuilder) List(context.Context, ListInput) (*Page, error) {
	return &Page{}, nil
}

func refresherTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:refresher_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Organization{}); err != nil {
		t.Fatalf("migrate tables: %v", err)
	}
	return db
}

func newTestRefresher(t *testing.T, db *gorm.DB, svc Service, locker *stubLocker) *Refresher {
	t.Helper()
	refresher, err := NewRefresher(svc, organizations.NewRepository(db), locker, nil, logger.New(logger.Options{}), RefresherOptions{
		BaseBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	return refresher
}

func TestRefreshOrganizationSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	db := refresherTestDB(t)
	locker := &stubLocker{held: map[string]bool{"lcfs:lock:credit-ledger:7": true}}
	rebuilder := &stubRebuilder{}
	refresher := newTestRefresher(t, db, rebuilder, locker)

	if err := refresher.RefreshOrganization(context.Background(), 7); err != nil {
		t.Fatalf("refresh under held lock: %v", err)
	}
	if rebuilder.calls != 0 {
		t.Fatalf("rebuild calls = %d, want 0 while another worker holds the lock", rebuilder.calls)
	}
	if len(locker.delKeys) != 0 {
		t.Fatalf("released a lock that was never acquired")
	}
}

func TestRefreshOrganizationRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	db := refresherTestDB(t)
	locker := &stubLocker{}
	rebuilder := &stubRebuilder{failUntil: 2}
	refresher := newTestRefresher(t, db, rebuilder, locker)

	if err := refresher.RefreshOrganization(context.Background(), 7); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rebuilder.calls != 3 {
		t.Fatalf("rebuild calls = %d, want 3 (two retries)", rebuilder.calls)
	}
	if len(locker.delKeys) != 1 {
		t.Fatalf("lock released %d times, want once", len(locker.delKeys))
	}
}

func TestRunOnceSweepsAllOrganizations(t *testing.T) {
	t.Parallel()

	db := refresherTestDB(t)
	for _, name := range []string{"Pacific Fuels Ltd", "Coastal Refining Inc"} {
		if err := db.Create(&models.Organization{Name: name}).Error; err != nil {
			t.Fatalf("seed organization: %v", err)
		}
	}

	locker := &stubLocker{}
	rebuilder := &stubRebuilder{}
	refresher := newTestRefresher(t, db, rebuilder, locker)

	if err := refresher.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if rebuilder.calls != 2 {
		t.Fatalf("rebuild calls = %d, want one per organization", rebuilder.calls)
	}
}
