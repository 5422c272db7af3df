package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/loyalty"
	"github.com/lepoa-store/club-api/internal/models"
)

func TestUseCoupon(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := loyalty.NewLedger(conn, clock)
	redeemer := loyalty.NewRedeemer(conn, ledger, clock)
	h := NewCouponHandler(redeemer)

	account, errAccount := ledger.EnsureAccount(context.Background(), 5)
	if errAccount != nil {
		t.Fatalf("ensure account: %v", errAccount)
	}
	if errGrant := ledger.GrantAdjustment(context.Background(), account.ID, 500, "seed"); errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	reward := models.Reward{Name: "Brinde", CostPoints: 100, IsActive: true}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}
	redemption, errRedeem := redeemer.Redeem(context.Background(), 5, reward.ID)
	if errRedeem != nil {
		t.Fatalf("redeem: %v", errRedeem)
	}

	use := func(code string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v0/admin/coupons/"+code+"/use", nil)
		c.Params = gin.Params{{Key: "code", Value: code}}
		h.Use(c)
		return w
	}

	if w := use(redemption.CouponCode); w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
	// A coupon is single-use.
	if w := use(redemption.CouponCode); w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 on second use, got %d", w.Code)
	}
	if w := use("CLUB-NOPE1234"); w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown coupon, got %d", w.Code)
	}
}
