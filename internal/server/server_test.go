package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditrepository "github.com/narmeshnigam/karyalaywebsite-sub001/internal/audit/repository"
	auditservice "github.com/narmeshnigam/karyalaywebsite-sub001/internal/audit/service"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/clock"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/config"
	customerservice "github.com/narmeshnigam/karyalaywebsite-sub001/internal/customer/service"
	leadservice "github.com/narmeshnigam/karyalaywebsite-sub001/internal/lead/service"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/migration"
	paymentservice "github.com/narmeshnigam/karyalaywebsite-sub001/internal/payment/service"
	planservice "github.com/narmeshnigam/karyalaywebsite-sub001/internal/plan/service"
	portrepository "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/repository"
	portservice "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/service"
	subscriptionservice "github.com/narmeshnigam/karyalaywebsite-sub001/internal/subscription/service"
	ticketservice "github.com/narmeshnigam/karyalaywebsite-sub001/internal/ticket/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type serverFixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	engine *gin.Engine
}

func setupServer(t *testing.T) serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	log := zap.NewNop()
	sysClock := clock.SystemClock{}

	portSvc := portservice.NewService(portservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    sysClock,
		Registry: portrepository.ProvideRegistry(),
		LogRepo:  portrepository.ProvideLog(),
	})
	subSvc := subscriptionservice.NewService(subscriptionservice.Params{
		DB: db, Log: log, GenID: node, Clock: sysClock,
	})
	customerSvc := customerservice.NewService(customerservice.Params{
		DB: db, Log: log, GenID: node,
	})
	planSvc := planservice.NewService(planservice.Params{
		DB: db, Log: log, GenID: node,
	})
	ticketSvc := ticketservice.NewService(ticketservice.Params{
		DB: db, Log: log, GenID: node, Clock: sysClock,
	})
	leadSvc := leadservice.NewService(leadservice.Params{
		DB: db, Log: log, GenID: node, Clock: sysClock,
	})
	paymentSvc := paymentservice.NewService(paymentservice.Params{
		DB: db, Log: log, GenID: node, Clock: sysClock,
		SubSvc:  subSvc,
		PortSvc: portSvc,
	})
	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node,
		Repo: auditrepository.Provide(),
	})

	engine := gin.New()
	srv := NewServer(Params{
		Config: config.Config{
			Environment:       "test",
			WebhookRateLimit:  2,
			WebhookRateWindow: time.Minute,
		},
		Log:             log,
		DB:              db,
		Engine:          engine,
		CustomerSvc:     customerSvc,
		PlanSvc:         planSvc,
		SubscriptionSvc: subSvc,
		PortSvc:         portSvc,
		TicketSvc:       ticketSvc,
		LeadSvc:         leadSvc,
		PaymentSvc:      paymentSvc,
		AuditSvc:        auditSvc,
	})
	srv.RegisterRoutes()
	return serverFixture{db: db, node: node, engine: engine}
}

func (f serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func (f serverFixture) insertActiveSubscription(t *testing.T) snowflake.ID {
	t.Helper()
	customerID := f.node.Generate()
	if err := f.db.Exec(
		`INSERT INTO customers (id, name, email) VALUES (?, ?, ?)`,
		customerID, "API Customer", customerID.String()+"@example.com",
	).Error; err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	planID := f.node.Generate()
	if err := f.db.Exec(
		`INSERT INTO plans (id, code, name) VALUES (?, ?, ?)`,
		planID, "plan-"+planID.String(), "API Plan",
	).Error; err != nil {
		t.Fatalf("insert plan: %v", err)
	}
	subID := f.node.Generate()
	if err := f.db.Exec(
		`INSERT INTO subscriptions (id, customer_id, plan_id, status) VALUES (?, ?, ?, 'active')`,
		subID, customerID, planID,
	).Error; err != nil {
		t.Fatalf("insert subscription: %v", err)
	}
	return subID
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return envelope.Data
}

func TestHealthz(t *testing.T) {
	f := setupServer(t)
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreatePortAndAllocateFlow(t *testing.T) {
	f := setupServer(t)

	rec := f.do(t, http.MethodPost, "/api/admin/ports", map[string]any{
		"instance_url": "https://pods.example.com/n1",
		"port_number":  8080,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create port status = %d body = %s", rec.Code, rec.Body.String())
	}
	portData := decodeData(t, rec)
	portID := portData["id"].(string)

	subID := f.insertActiveSubscription(t)
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/subscriptions/%s/allocate-port", subID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("allocate status = %d body = %s", rec.Code, rec.Body.String())
	}
	allocated := decodeData(t, rec)
	if allocated["id"].(string) != portID {
		t.Fatalf("allocated port %v, want %s", allocated["id"], portID)
	}
	if allocated["status"].(string) != "ASSIGNED" {
		t.Fatalf("allocated status = %v", allocated["status"])
	}

	// Second allocation for the same subscription conflicts.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/subscriptions/%s/allocate-port", subID), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat allocate status = %d, want 409", rec.Code)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/admin/ports/%s/history", portID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
}

func TestAllocateUnknownSubscriptionReturns404(t *testing.T) {
	f := setupServer(t)
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/subscriptions/%s/allocate-port", f.node.Generate()), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAllocateExhaustedPoolReturns409(t *testing.T) {
	f := setupServer(t)
	subID := f.insertActiveSubscription(t)
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/subscriptions/%s/allocate-port", subID), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestReassignAndReleaseEndpoints(t *testing.T) {
	f := setupServer(t)
	actorID := f.node.Generate()

	rec := f.do(t, http.MethodPost, "/api/admin/ports", map[string]any{
		"instance_url": "https://pods.example.com/n1",
		"port_number":  8080,
	})
	portID := decodeData(t, rec)["id"].(string)

	fromSub := f.insertActiveSubscription(t)
	toSub := f.insertActiveSubscription(t)
	if rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/subscriptions/%s/allocate-port", fromSub), nil); rec.Code != http.StatusOK {
		t.Fatalf("allocate status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/admin/ports/%s/reassign", portID), map[string]any{
		"subscription_id": toSub.String(),
		"actor_id":        actorID.String(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reassign status = %d body = %s", rec.Code, rec.Body.String())
	}
	moved := decodeData(t, rec)
	if moved["assigned_subscription_id"].(string) != toSub.String() {
		t.Fatalf("port now on %v, want %s", moved["assigned_subscription_id"], toSub)
	}

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/admin/ports/%s/release", portID), map[string]any{
		"actor_id": actorID.String(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("release status = %d body = %s", rec.Code, rec.Body.String())
	}
	released := decodeData(t, rec)
	if released["status"].(string) != "AVAILABLE" {
		t.Fatalf("released status = %v", released["status"])
	}

	// Releasing an unassigned port conflicts.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/admin/ports/%s/release", portID), map[string]any{
		"actor_id": actorID.String(),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat release status = %d, want 409", rec.Code)
	}
}

func TestWebhookRateLimited(t *testing.T) {
	f := setupServer(t)
	subID := f.insertActiveSubscription(t)
	payload := map[string]any{
		"event_id":        "evt_a",
		"type":            "payment.noop",
		"subscription_id": subID.String(),
	}

	// Limit is 2 per window in the fixture.
	for i := 0; i < 2; i++ {
		payload["event_id"] = fmt.Sprintf("evt_%d", i)
		if rec := f.do(t, http.MethodPost, "/api/webhooks/payment/razorpay", payload); rec.Code != http.StatusOK {
			t.Fatalf("delivery %d status = %d", i, rec.Code)
		}
	}
	rec := f.do(t, http.MethodPost, "/api/webhooks/payment/razorpay", payload)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	f := setupServer(t)

	rec := f.do(t, http.MethodPost, "/api/customers", map[string]any{
		"name": "", "email": "",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/customers", map[string]any{
		"name": "Asha", "email": "asha@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	// Duplicate email conflicts.
	rec = f.do(t, http.MethodPost, "/api/customers", map[string]any{
		"name": "Asha Again", "email": "asha@example.com",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestGetPortInvalidID(t *testing.T) {
	f := setupServer(t)
	rec := f.do(t, http.MethodGet, "/api/admin/ports/not-a-snowflake", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
