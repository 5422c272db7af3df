package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/loyalty"
	"github.com/lepoa-store/club-api/internal/models"
)

func adjustContext(t *testing.T, customerID uint64, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost,
		"/v0/admin/customers/"+strconv.FormatUint(customerID, 10)+"/points/adjust",
		strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "customer_id", Value: strconv.FormatUint(customerID, 10)}}
	return c, w
}

func TestAdjustGrantsAndDebits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := loyalty.NewLedger(conn, clock)
	h := NewPointsHandler(conn, ledger)

	c, w := adjustContext(t, 7, `{"amount": 500, "reason": "campanha"}`)
	h.Adjust(c)
	if w.Code != http.StatusOK {
		t.Fatalf("grant: expected status 200, got %d body=%s", w.Code, w.Body.String())
	}

	c, w = adjustContext(t, 7, `{"amount": -200, "reason": "correcao"}`)
	h.Adjust(c)
	if w.Code != http.StatusOK {
		t.Fatalf("debit: expected status 200, got %d body=%s", w.Code, w.Body.String())
	}

	account, errAccount := ledger.Account(c.Request.Context(), 7)
	if errAccount != nil || account == nil {
		t.Fatalf("load account: %v", errAccount)
	}
	balance, errBalance := ledger.CurrentPoints(c.Request.Context(), account.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 300 {
		t.Fatalf("expected balance 300 after grant and debit, got %d", balance)
	}
}

func TestAdjustDebitBeyondBalance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	ledger := loyalty.NewLedger(conn, clockwork.NewFakeClock())
	h := NewPointsHandler(conn, ledger)

	c, w := adjustContext(t, 7, `{"amount": 100, "reason": "seed"}`)
	h.Adjust(c)
	if w.Code != http.StatusOK {
		t.Fatalf("seed grant failed: %d", w.Code)
	}

	c, w = adjustContext(t, 7, `{"amount": -500, "reason": "oops"}`)
	h.Adjust(c)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestAdjustRejectsZeroAmount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	h := NewPointsHandler(conn, loyalty.NewLedger(conn, clockwork.NewFakeClock()))

	c, w := adjustContext(t, 7, `{"amount": 0}`)
	h.Adjust(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestAccountUnknownCustomer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	h := NewPointsHandler(conn, loyalty.NewLedger(conn, clockwork.NewFakeClock()))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v0/admin/customers/99/points", nil)
	c.Params = gin.Params{{Key: "customer_id", Value: "99"}}
	h.Account(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestAccountReflectsTier(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := loyalty.NewLedger(conn, clock)
	h := NewPointsHandler(conn, ledger)

	c, w := adjustContext(t, 9, `{"amount": 1200, "reason": "migracao"}`)
	h.Adjust(c)
	if w.Code != http.StatusOK {
		t.Fatalf("grant failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v0/admin/customers/9/points", nil)
	c.Params = gin.Params{{Key: "customer_id", Value: "9"}}
	h.Account(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		CurrentPoints int64  `json:"current_points"`
		AnnualPoints  int64  `json:"annual_points"`
		Tier          string `json:"tier"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.CurrentPoints != 1200 || resp.AnnualPoints != 1200 {
		t.Fatalf("unexpected points: %+v", resp)
	}
	if resp.Tier != models.TierPoaGold {
		t.Fatalf("expected gold tier at 1200 annual points, got %s", resp.Tier)
	}
}
