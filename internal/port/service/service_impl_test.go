package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/narmeshnigam/karyalaywebsite-sub001/internal/audit/repository"
	auditservice "github.com/narmeshnigam/karyalaywebsite-sub001/internal/audit/service"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/clock"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/migration"
	portdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/domain"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPortTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// One connection keeps the in-memory database shared and serializes
	// concurrent transactions the way a busy-waiting sqlite file would.
	sqlDB.SetMaxOpenConns(1)
	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func newPortService(t *testing.T, db *gorm.DB) (*Service, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.SystemClock{},
		Registry: repository.ProvideRegistry(),
		LogRepo:  repository.ProvideLog(),
	}).(*Service)
	return svc, node
}

func insertSubscription(t *testing.T, db *gorm.DB, node *snowflake.Node) snowflake.ID {
	t.Helper()
	customerID := node.Generate()
	if err := db.Exec(
		`INSERT INTO customers (id, name, email) VALUES (?, ?, ?)`,
		customerID, "Test Customer", customerID.String()+"@example.com",
	).Error; err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	planID := node.Generate()
	if err := db.Exec(
		`INSERT INTO plans (id, code, name) VALUES (?, ?, ?)`,
		planID, "plan-"+planID.String(), "Test Plan",
	).Error; err != nil {
		t.Fatalf("insert plan: %v", err)
	}
	subID := node.Generate()
	if err := db.Exec(
		`INSERT INTO subscriptions (id, customer_id, plan_id, status) VALUES (?, ?, ?, 'active')`,
		subID, customerID, planID,
	).Error; err != nil {
		t.Fatalf("insert subscription: %v", err)
	}
	return subID
}

func insertPort(t *testing.T, db *gorm.DB, node *snowflake.Node, createdAt time.Time) snowflake.ID {
	t.Helper()
	id := node.Generate()
	if err := db.Exec(
		`INSERT INTO ports (id, instance_url, port_number, status, created_at, updated_at)
		 VALUES (?, ?, ?, 'AVAILABLE', ?, ?)`,
		id, "https://pods.example.com/"+id.String(), 8080, createdAt, createdAt,
	).Error; err != nil {
		t.Fatalf("insert port: %v", err)
	}
	return id
}

func loadPort(t *testing.T, db *gorm.DB, id snowflake.ID) portdomain.Port {
	t.Helper()
	var port portdomain.Port
	if err := db.First(&port, "id = ?", id).Error; err != nil {
		t.Fatalf("load port %s: %v", id, err)
	}
	return port
}

func loadAssignedPortID(t *testing.T, db *gorm.DB, subID snowflake.ID) *snowflake.ID {
	t.Helper()
	var row struct {
		AssignedPortID *snowflake.ID
	}
	if err := db.Table("subscriptions").
		Select("assigned_port_id").
		Where("id = ?", subID).
		Scan(&row).Error; err != nil {
		t.Fatalf("load subscription %s: %v", subID, err)
	}
	return row.AssignedPortID
}

func TestAllocateAssignsAvailablePort(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subID := insertSubscription(t, db, node)
	portID := insertPort(t, db, node, time.Now().UTC())

	port, err := svc.Allocate(context.Background(), subID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if port.ID != portID {
		t.Fatalf("expected port %s, got %s", portID, port.ID)
	}
	if port.Status != portdomain.StatusAssigned {
		t.Fatalf("expected ASSIGNED, got %s", port.Status)
	}

	stored := loadPort(t, db, portID)
	if stored.Status != portdomain.StatusAssigned {
		t.Fatalf("stored port status = %s", stored.Status)
	}
	if stored.AssignedSubscriptionID == nil || *stored.AssignedSubscriptionID != subID {
		t.Fatalf("stored port not linked to subscription %s", subID)
	}
	if stored.AssignedAt == nil {
		t.Fatal("assigned_at not set")
	}

	linked := loadAssignedPortID(t, db, subID)
	if linked == nil || *linked != portID {
		t.Fatalf("subscription not linked back to port %s", portID)
	}

	logs, err := svc.History(context.Background(), portID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	if logs[0].Action != portdomain.ActionAssigned {
		t.Fatalf("expected ASSIGNED log, got %s", logs[0].Action)
	}
	if logs[0].PerformedBy != nil {
		t.Fatal("system assignment must not carry performed_by")
	}
	if logs[0].SubscriptionID != subID {
		t.Fatalf("log subscription = %s, want %s", logs[0].SubscriptionID, subID)
	}
}

func TestAllocateSecondCallFails(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subID := insertSubscription(t, db, node)
	insertPort(t, db, node, time.Now().UTC())
	spareID := insertPort(t, db, node, time.Now().UTC())

	if _, err := svc.Allocate(context.Background(), subID); err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	_, err := svc.Allocate(context.Background(), subID)
	if !errors.Is(err, portdomain.ErrAlreadyAssigned) {
		t.Fatalf("expected ErrAlreadyAssigned, got %v", err)
	}

	// The spare port must be untouched by the failed attempt.
	spare := loadPort(t, db, spareID)
	if spare.Status != portdomain.StatusAvailable {
		t.Fatalf("spare port status = %s", spare.Status)
	}
}

func TestAllocateUnknownSubscription(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	insertPort(t, db, node, time.Now().UTC())

	_, err := svc.Allocate(context.Background(), node.Generate())
	if !errors.Is(err, portdomain.ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestAllocateExhaustedPoolMutatesNothing(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subID := insertSubscription(t, db, node)

	disabledID := insertPort(t, db, node, time.Now().UTC())
	if err := db.Exec(`UPDATE ports SET status = 'DISABLED' WHERE id = ?`, disabledID).Error; err != nil {
		t.Fatalf("disable port: %v", err)
	}

	_, err := svc.Allocate(context.Background(), subID)
	if !errors.Is(err, portdomain.ErrNoAvailablePorts) {
		t.Fatalf("expected ErrNoAvailablePorts, got %v", err)
	}

	if linked := loadAssignedPortID(t, db, subID); linked != nil {
		t.Fatalf("subscription gained port %s from failed allocation", *linked)
	}
	var logCount int64
	if err := db.Table("port_allocation_logs").Count(&logCount).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if logCount != 0 {
		t.Fatalf("expected no log entries, got %d", logCount)
	}
}

func TestAllocatePicksOldestPortFirst(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := insertPort(t, db, node, base)
	middle := insertPort(t, db, node, base.Add(time.Second))
	insertPort(t, db, node, base.Add(2*time.Second))

	firstSub := insertSubscription(t, db, node)
	secondSub := insertSubscription(t, db, node)

	first, err := svc.Allocate(context.Background(), firstSub)
	if err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	if first.ID != oldest {
		t.Fatalf("expected oldest port %s, got %s", oldest, first.ID)
	}

	second, err := svc.Allocate(context.Background(), secondSub)
	if err != nil {
		t.Fatalf("second allocate: %v", err)
	}
	if second.ID != middle {
		t.Fatalf("expected next-oldest port %s, got %s", middle, second.ID)
	}
}

func TestAllocateConcurrentSameSubscription(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subID := insertSubscription(t, db, node)
	for i := 0; i < 4; i++ {
		insertPort(t, db, node, time.Now().UTC())
	}

	const callers = 8
	results := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Allocate(context.Background(), subID)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, portdomain.ErrAlreadyAssigned):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", won)
	}
	if lost != callers-1 {
		t.Fatalf("expected %d ErrAlreadyAssigned, got %d", callers-1, lost)
	}

	var assigned int64
	if err := db.Table("ports").Where("status = 'ASSIGNED'").Count(&assigned).Error; err != nil {
		t.Fatalf("count assigned: %v", err)
	}
	if assigned != 1 {
		t.Fatalf("expected 1 assigned port, got %d", assigned)
	}
	var logCount int64
	if err := db.Table("port_allocation_logs").Count(&logCount).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if logCount != 1 {
		t.Fatalf("expected 1 log entry, got %d", logCount)
	}
}

func TestAllocateConcurrentDistinctSubscriptions(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	for i := 0; i < 2; i++ {
		insertPort(t, db, node, time.Now().UTC())
	}

	subs := make([]snowflake.ID, 4)
	for i := range subs {
		subs[i] = insertSubscription(t, db, node)
	}

	results := make([]error, len(subs))
	ports := make([]*portdomain.Port, len(subs))
	var wg sync.WaitGroup
	for i, subID := range subs {
		wg.Add(1)
		go func(i int, subID snowflake.ID) {
			defer wg.Done()
			ports[i], results[i] = svc.Allocate(context.Background(), subID)
		}(i, subID)
	}
	wg.Wait()

	var won, exhausted int
	seen := make(map[snowflake.ID]bool)
	for i, err := range results {
		switch {
		case err == nil:
			won++
			if seen[ports[i].ID] {
				t.Fatalf("port %s assigned twice", ports[i].ID)
			}
			seen[ports[i].ID] = true
		case errors.Is(err, portdomain.ErrNoAvailablePorts):
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 2 {
		t.Fatalf("expected 2 winners for 2 ports, got %d", won)
	}
	if exhausted != 2 {
		t.Fatalf("expected 2 exhausted callers, got %d", exhausted)
	}
}

func TestReassignMovesPort(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	fromSub := insertSubscription(t, db, node)
	toSub := insertSubscription(t, db, node)
	actorID := node.Generate()
	insertPort(t, db, node, time.Now().UTC())

	port, err := svc.Allocate(context.Background(), fromSub)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if err := svc.Reassign(context.Background(), port.ID, toSub, actorID); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	stored := loadPort(t, db, port.ID)
	if stored.AssignedSubscriptionID == nil || *stored.AssignedSubscriptionID != toSub {
		t.Fatalf("port not repointed to %s", toSub)
	}
	if linked := loadAssignedPortID(t, db, fromSub); linked != nil {
		t.Fatal("old subscription still linked")
	}
	if linked := loadAssignedPortID(t, db, toSub); linked == nil || *linked != port.ID {
		t.Fatal("new subscription not linked")
	}

	logs, err := svc.History(context.Background(), port.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	last := logs[len(logs)-1]
	if last.Action != portdomain.ActionReassigned {
		t.Fatalf("expected REASSIGNED, got %s", last.Action)
	}
	if last.PerformedBy == nil || *last.PerformedBy != actorID {
		t.Fatal("REASSIGNED entry must carry the acting admin")
	}
	if last.SubscriptionID != toSub {
		t.Fatalf("REASSIGNED entry subscription = %s, want %s", last.SubscriptionID, toSub)
	}
}

func TestReassignReleasesTargetsExistingPort(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subA := insertSubscription(t, db, node)
	subB := insertSubscription(t, db, node)
	actorID := node.Generate()

	base := time.Now().UTC()
	insertPort(t, db, node, base)
	insertPort(t, db, node, base.Add(time.Second))

	portA, err := svc.Allocate(context.Background(), subA)
	if err != nil {
		t.Fatalf("allocate A: %v", err)
	}
	portB, err := svc.Allocate(context.Background(), subB)
	if err != nil {
		t.Fatalf("allocate B: %v", err)
	}

	// Move A's port onto B; B's current port must return to the pool.
	if err := svc.Reassign(context.Background(), portA.ID, subB, actorID); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	released := loadPort(t, db, portB.ID)
	if released.Status != portdomain.StatusAvailable {
		t.Fatalf("displaced port status = %s, want AVAILABLE", released.Status)
	}
	if released.AssignedSubscriptionID != nil {
		t.Fatal("displaced port still linked")
	}

	if linked := loadAssignedPortID(t, db, subB); linked == nil || *linked != portA.ID {
		t.Fatal("target subscription not holding the moved port")
	}

	logsB, err := svc.History(context.Background(), portB.ID)
	if err != nil {
		t.Fatalf("history B: %v", err)
	}
	lastB := logsB[len(logsB)-1]
	if lastB.Action != portdomain.ActionReleased {
		t.Fatalf("expected RELEASED on displaced port, got %s", lastB.Action)
	}
	if lastB.PerformedBy == nil || *lastB.PerformedBy != actorID {
		t.Fatal("RELEASED entry must carry the acting admin")
	}
}

func TestReassignRejectsUnassignedPort(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subID := insertSubscription(t, db, node)
	portID := insertPort(t, db, node, time.Now().UTC())

	err := svc.Reassign(context.Background(), portID, subID, node.Generate())
	if !errors.Is(err, portdomain.ErrPortNotAssigned) {
		t.Fatalf("expected ErrPortNotAssigned, got %v", err)
	}
}

func TestReassignRejectsUnknownTarget(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subID := insertSubscription(t, db, node)
	insertPort(t, db, node, time.Now().UTC())

	port, err := svc.Allocate(context.Background(), subID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	err = svc.Reassign(context.Background(), port.ID, node.Generate(), node.Generate())
	if !errors.Is(err, portdomain.ErrTargetSubscriptionInvalid) {
		t.Fatalf("expected ErrTargetSubscriptionInvalid, got %v", err)
	}

	// Failed reassignment must leave the original link intact.
	if linked := loadAssignedPortID(t, db, subID); linked == nil || *linked != port.ID {
		t.Fatal("original link lost after failed reassignment")
	}
}

func TestReassignSameSubscriptionIsNoOp(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subID := insertSubscription(t, db, node)
	insertPort(t, db, node, time.Now().UTC())

	port, err := svc.Allocate(context.Background(), subID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := svc.Reassign(context.Background(), port.ID, subID, node.Generate()); err != nil {
		t.Fatalf("reassign to self: %v", err)
	}

	logs, err := svc.History(context.Background(), port.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("no-op reassign must not add log entries, got %d", len(logs))
	}
}

func TestReassignRecordsAudit(t *testing.T) {
	db := setupPortTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
	})
	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.SystemClock{},
		Registry: repository.ProvideRegistry(),
		LogRepo:  repository.ProvideLog(),
		AuditSvc: auditSvc,
	}).(*Service)

	fromSub := insertSubscription(t, db, node)
	toSub := insertSubscription(t, db, node)
	actorID := node.Generate()
	insertPort(t, db, node, time.Now().UTC())

	port, err := svc.Allocate(context.Background(), fromSub)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := svc.Reassign(context.Background(), port.ID, toSub, actorID); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	var count int64
	if err := db.Table("audit_logs").
		Where("action = ? AND actor_id = ?", "port.reassign", actorID.String()).
		Count(&count).Error; err != nil {
		t.Fatalf("count audit logs: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 audit entry, got %d", count)
	}
}

func TestReleaseReturnsPortToPool(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subID := insertSubscription(t, db, node)
	actorID := node.Generate()
	insertPort(t, db, node, time.Now().UTC())

	port, err := svc.Allocate(context.Background(), subID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := svc.Release(context.Background(), port.ID, actorID); err != nil {
		t.Fatalf("release: %v", err)
	}

	stored := loadPort(t, db, port.ID)
	if stored.Status != portdomain.StatusAvailable {
		t.Fatalf("released port status = %s", stored.Status)
	}
	if stored.AssignedSubscriptionID != nil || stored.AssignedAt != nil {
		t.Fatal("released port still carries assignment state")
	}
	if linked := loadAssignedPortID(t, db, subID); linked != nil {
		t.Fatal("subscription still linked after release")
	}

	logs, err := svc.History(context.Background(), port.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	last := logs[len(logs)-1]
	if last.Action != portdomain.ActionReleased {
		t.Fatalf("expected RELEASED, got %s", last.Action)
	}
	if last.PerformedBy == nil || *last.PerformedBy != actorID {
		t.Fatal("RELEASED entry must carry the acting admin")
	}

	// The released port is allocatable again.
	otherSub := insertSubscription(t, db, node)
	again, err := svc.Allocate(context.Background(), otherSub)
	if err != nil {
		t.Fatalf("re-allocate: %v", err)
	}
	if again.ID != port.ID {
		t.Fatalf("expected recycled port %s, got %s", port.ID, again.ID)
	}
}

func TestReleaseRejectsUnassignedPort(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	portID := insertPort(t, db, node, time.Now().UTC())

	err := svc.Release(context.Background(), portID, node.Generate())
	if !errors.Is(err, portdomain.ErrPortNotAssigned) {
		t.Fatalf("expected ErrPortNotAssigned, got %v", err)
	}
}

func TestSetStatusGuardsAssignment(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subID := insertSubscription(t, db, node)
	insertPort(t, db, node, time.Now().UTC())

	port, err := svc.Allocate(context.Background(), subID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	err = svc.SetStatus(context.Background(), port.ID, portdomain.StatusAssigned, portdomain.StatusDisabled)
	if !errors.Is(err, portdomain.ErrPortInUse) {
		t.Fatalf("expected ErrPortInUse moving out of ASSIGNED, got %v", err)
	}
	err = svc.SetStatus(context.Background(), port.ID, portdomain.StatusAvailable, portdomain.StatusAssigned)
	if !errors.Is(err, portdomain.ErrPortInUse) {
		t.Fatalf("expected ErrPortInUse moving into ASSIGNED, got %v", err)
	}
}

func TestSetStatusTransitions(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	portID := insertPort(t, db, node, time.Now().UTC())

	if err := svc.SetStatus(context.Background(), portID, portdomain.StatusAvailable, portdomain.StatusDisabled); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if got := loadPort(t, db, portID).Status; got != portdomain.StatusDisabled {
		t.Fatalf("status = %s, want DISABLED", got)
	}

	// Stale precondition: the port is DISABLED now, not AVAILABLE.
	err := svc.SetStatus(context.Background(), portID, portdomain.StatusAvailable, portdomain.StatusReserved)
	if !errors.Is(err, portdomain.ErrPortInUse) {
		t.Fatalf("expected ErrPortInUse on stale precondition, got %v", err)
	}

	err = svc.SetStatus(context.Background(), node.Generate(), portdomain.StatusAvailable, portdomain.StatusDisabled)
	if !errors.Is(err, portdomain.ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	db := setupPortTestDB(t)
	svc, _ := newPortService(t, db)
	ctx := context.Background()

	cases := []portdomain.CreatePortRequest{
		{InstanceURL: "", PortNumber: 8080},
		{InstanceURL: "https://pods.example.com/a", PortNumber: 0},
		{InstanceURL: "https://pods.example.com/a", PortNumber: 70000},
		{InstanceURL: "https://pods.example.com/a", PortNumber: 8080, Status: "ASSIGNED"},
	}
	for _, req := range cases {
		if _, err := svc.Create(ctx, req); !errors.Is(err, portdomain.ErrInvalidPort) {
			t.Fatalf("expected ErrInvalidPort for %+v, got %v", req, err)
		}
	}

	port, err := svc.Create(ctx, portdomain.CreatePortRequest{
		InstanceURL: "https://pods.example.com/a",
		PortNumber:  8443,
		Status:      "disabled",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if port.Status != portdomain.StatusDisabled {
		t.Fatalf("status = %s, want DISABLED", port.Status)
	}
}

func TestHistoryIsChronological(t *testing.T) {
	db := setupPortTestDB(t)
	svc, node := newPortService(t, db)
	subA := insertSubscription(t, db, node)
	subB := insertSubscription(t, db, node)
	actorID := node.Generate()
	insertPort(t, db, node, time.Now().UTC())

	port, err := svc.Allocate(context.Background(), subA)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := svc.Release(context.Background(), port.ID, actorID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := svc.Allocate(context.Background(), subB); err != nil {
		t.Fatalf("re-allocate: %v", err)
	}

	logs, err := svc.History(context.Background(), port.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []portdomain.Action{
		portdomain.ActionAssigned,
		portdomain.ActionReleased,
		portdomain.ActionAssigned,
	}
	if len(logs) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(logs))
	}
	for i, action := range want {
		if logs[i].Action != action {
			t.Fatalf("entry %d = %s, want %s", i, logs[i].Action, action)
		}
	}
}
