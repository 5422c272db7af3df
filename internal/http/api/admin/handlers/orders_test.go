package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	internaldb "github.com/lepoa-store/club-api/internal/db"
	"github.com/lepoa-store/club-api/internal/loyalty"
	"github.com/lepoa-store/club-api/internal/models"
	"gorm.io/gorm"
)

func openAdminTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:admin_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func newAdminOrderHandler(conn *gorm.DB, clock clockwork.Clock) *OrderHandler {
	ledger := loyalty.NewLedger(conn, clock)
	return NewOrderHandler(conn, loyalty.NewAccrual(conn, ledger, clock), clock)
}

func TestMarkPaidGrantsPoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	h := newAdminOrderHandler(conn, clock)

	customerID := uint64(3)
	order := models.Order{
		ID:           uuid.NewString(),
		CustomerID:   &customerID,
		CustomerName: "Cliente Teste",
		Status:       models.OrderStatusPending,
		Total:        200,
	}
	if errCreate := conn.Create(&order).Error; errCreate != nil {
		t.Fatalf("create order: %v", errCreate)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v0/admin/orders/"+order.ID+"/mark-paid", nil)
	c.Params = gin.Params{{Key: "id", Value: order.ID}}
	h.MarkPaid(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Status        string `json:"status"`
		PointsGranted int64  `json:"points_granted"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Status != models.OrderStatusPaid {
		t.Fatalf("expected paid status, got %s", resp.Status)
	}
	// Base tier multiplier 1.0 on a 200.00 order.
	if resp.PointsGranted != 200 {
		t.Fatalf("expected 200 points granted, got %d", resp.PointsGranted)
	}

	var stored models.Order
	if errFind := conn.First(&stored, "id = ?", order.ID).Error; errFind != nil {
		t.Fatalf("reload order: %v", errFind)
	}
	if stored.Status != models.OrderStatusPaid || stored.PaidAt == nil {
		t.Fatalf("order not persisted as paid: %+v", stored)
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	h := newAdminOrderHandler(conn, clock)

	customerID := uint64(3)
	order := models.Order{
		ID:           uuid.NewString(),
		CustomerID:   &customerID,
		CustomerName: "Cliente Teste",
		Status:       models.OrderStatusPending,
		Total:        100,
	}
	if errCreate := conn.Create(&order).Error; errCreate != nil {
		t.Fatalf("create order: %v", errCreate)
	}

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v0/admin/orders/"+order.ID+"/mark-paid", nil)
		c.Params = gin.Params{{Key: "id", Value: order.ID}}
		h.MarkPaid(c)
		if w.Code != http.StatusOK {
			t.Fatalf("call %d: expected status 200, got %d body=%s", i+1, w.Code, w.Body.String())
		}
	}

	var count int64
	if errCount := conn.Model(&models.LedgerEntry{}).
		Where("source = ? AND source_id = ?", models.EntrySourcePurchase, order.ID).
		Count(&count).Error; errCount != nil {
		t.Fatalf("count entries: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected a single grant after repeated mark-paid, got %d", count)
	}
}

func TestMarkPaidRejectsCancelledOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	h := newAdminOrderHandler(conn, clockwork.NewFakeClock())

	order := models.Order{
		ID:           uuid.NewString(),
		CustomerName: "Cliente Teste",
		Status:       models.OrderStatusCancelled,
		Total:        100,
	}
	if errCreate := conn.Create(&order).Error; errCreate != nil {
		t.Fatalf("create order: %v", errCreate)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v0/admin/orders/"+order.ID+"/mark-paid", nil)
	c.Params = gin.Params{{Key: "id", Value: order.ID}}
	h.MarkPaid(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
}
