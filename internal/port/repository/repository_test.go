package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/migration"
	portdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRegistryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func newTestNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	return node
}

func TestClaimIsConditional(t *testing.T) {
	db := setupRegistryTestDB(t)
	node := newTestNode(t)
	reg := ProvideRegistry()
	ctx := context.Background()
	now := time.Now().UTC()

	port := &portdomain.Port{
		ID:          node.Generate(),
		InstanceURL: "https://pods.example.com/a",
		PortNumber:  8080,
		Status:      portdomain.StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := reg.Insert(ctx, db, port); err != nil {
		t.Fatalf("insert: %v", err)
	}

	subA := node.Generate()
	ok, err := reg.Claim(ctx, db, port.ID, subA, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !ok {
		t.Fatal("first claim must succeed")
	}

	// A second claim sees the port no longer AVAILABLE.
	ok, err = reg.Claim(ctx, db, port.ID, node.Generate(), now)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if ok {
		t.Fatal("claim of an ASSIGNED port must report failure")
	}

	stored, err := reg.FindByID(ctx, db, port.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.AssignedSubscriptionID == nil || *stored.AssignedSubscriptionID != subA {
		t.Fatal("port must stay with the first claimant")
	}
}

func TestReleaseOnlyAssignedPorts(t *testing.T) {
	db := setupRegistryTestDB(t)
	node := newTestNode(t)
	reg := ProvideRegistry()
	ctx := context.Background()
	now := time.Now().UTC()

	port := &portdomain.Port{
		ID:          node.Generate(),
		InstanceURL: "https://pods.example.com/a",
		PortNumber:  8080,
		Status:      portdomain.StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := reg.Insert(ctx, db, port); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ok, err := reg.Release(ctx, db, port.ID, now)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok {
		t.Fatal("releasing an AVAILABLE port must report failure")
	}

	if _, err := reg.Claim(ctx, db, port.ID, node.Generate(), now); err != nil {
		t.Fatalf("claim: %v", err)
	}
	ok, err = reg.Release(ctx, db, port.ID, now)
	if err != nil {
		t.Fatalf("release assigned: %v", err)
	}
	if !ok {
		t.Fatal("releasing an ASSIGNED port must succeed")
	}

	stored, err := reg.FindByID(ctx, db, port.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != portdomain.StatusAvailable || stored.AssignedSubscriptionID != nil || stored.AssignedAt != nil {
		t.Fatalf("release left assignment state behind: %+v", stored)
	}
}

func TestRepointRequiresCurrentHolder(t *testing.T) {
	db := setupRegistryTestDB(t)
	node := newTestNode(t)
	reg := ProvideRegistry()
	ctx := context.Background()
	now := time.Now().UTC()

	port := &portdomain.Port{
		ID:          node.Generate(),
		InstanceURL: "https://pods.example.com/a",
		PortNumber:  8080,
		Status:      portdomain.StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := reg.Insert(ctx, db, port); err != nil {
		t.Fatalf("insert: %v", err)
	}

	holder := node.Generate()
	if _, err := reg.Claim(ctx, db, port.ID, holder, now); err != nil {
		t.Fatalf("claim: %v", err)
	}

	ok, err := reg.Repoint(ctx, db, port.ID, node.Generate(), node.Generate(), now)
	if err != nil {
		t.Fatalf("repoint: %v", err)
	}
	if ok {
		t.Fatal("repoint with a stale holder must report failure")
	}

	target := node.Generate()
	ok, err = reg.Repoint(ctx, db, port.ID, holder, target, now)
	if err != nil {
		t.Fatalf("repoint current: %v", err)
	}
	if !ok {
		t.Fatal("repoint with the current holder must succeed")
	}

	stored, err := reg.FindByID(ctx, db, port.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.AssignedSubscriptionID == nil || *stored.AssignedSubscriptionID != target {
		t.Fatal("repoint did not move the link")
	}
}

func TestFindAvailableOrdersByAge(t *testing.T) {
	db := setupRegistryTestDB(t)
	node := newTestNode(t)
	reg := ProvideRegistry()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var oldest snowflake.ID
	for i := 0; i < 3; i++ {
		port := &portdomain.Port{
			ID:          node.Generate(),
			InstanceURL: "https://pods.example.com/a",
			PortNumber:  8080 + i,
			Status:      portdomain.StatusAvailable,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
			UpdatedAt:   base,
		}
		if err := reg.Insert(ctx, db, port); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if i == 0 {
			oldest = port.ID
		}
	}

	found, err := reg.FindAvailable(ctx, db)
	if err != nil {
		t.Fatalf("find available: %v", err)
	}
	if found == nil || found.ID != oldest {
		t.Fatal("expected the oldest AVAILABLE port")
	}
}

func TestFindAvailableEmptyPool(t *testing.T) {
	db := setupRegistryTestDB(t)
	reg := ProvideRegistry()

	found, err := reg.FindAvailable(context.Background(), db)
	if err != nil {
		t.Fatalf("find available: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil on empty pool, got %+v", found)
	}
}

func TestCountByStatus(t *testing.T) {
	db := setupRegistryTestDB(t)
	node := newTestNode(t)
	reg := ProvideRegistry()
	ctx := context.Background()
	now := time.Now().UTC()

	statuses := []portdomain.Status{
		portdomain.StatusAvailable,
		portdomain.StatusAvailable,
		portdomain.StatusDisabled,
	}
	for i, status := range statuses {
		port := &portdomain.Port{
			ID:          node.Generate(),
			InstanceURL: "https://pods.example.com/a",
			PortNumber:  9000 + i,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := reg.Insert(ctx, db, port); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	counts, err := reg.CountByStatus(ctx, db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[portdomain.StatusAvailable] != 2 {
		t.Fatalf("available = %d, want 2", counts[portdomain.StatusAvailable])
	}
	if counts[portdomain.StatusDisabled] != 1 {
		t.Fatalf("disabled = %d, want 1", counts[portdomain.StatusDisabled])
	}
	if counts[portdomain.StatusAssigned] != 0 {
		t.Fatalf("assigned = %d, want 0", counts[portdomain.StatusAssigned])
	}
}
