package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lepoa-store/club-api/internal/cache"
	"github.com/lepoa-store/club-api/internal/models"
)

func rewardContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	return c, w
}

func TestCreateRewardValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	h := NewRewardHandler(conn, cache.NewCatalog(conn, nil))

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{"cost_points": 100}`, http.StatusBadRequest},
		{"zero cost", `{"name": "Brinde", "cost_points": 0}`, http.StatusBadRequest},
		{"unknown tier", `{"name": "Brinde", "cost_points": 100, "tier_requirement": "diamante"}`, http.StatusBadRequest},
		{"valid", `{"name": "Brinde", "cost_points": 100, "tier_requirement": "poa_gold"}`, http.StatusCreated},
	}
	for _, tc := range cases {
		c, w := rewardContext(t, http.MethodPost, "/v0/admin/rewards", tc.body)
		h.Create(c)
		if w.Code != tc.want {
			t.Fatalf("%s: expected status %d, got %d body=%s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestDeleteRewardDeactivates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	h := NewRewardHandler(conn, cache.NewCatalog(conn, nil))

	reward := models.Reward{Name: "Caneca", CostPoints: 300, IsActive: true}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}

	c, w := rewardContext(t, http.MethodDelete, "/v0/admin/rewards/1", "")
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.Delete(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}

	var stored models.Reward
	if errFind := conn.First(&stored, reward.ID).Error; errFind != nil {
		t.Fatalf("reload reward: %v", errFind)
	}
	if stored.IsActive {
		t.Fatal("expected reward to be deactivated, not removed")
	}

	var count int64
	if errCount := conn.Model(&models.Reward{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count rewards: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected the row to survive, got %d rows", count)
	}
}

func TestUpdateRewardReplacesFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	h := NewRewardHandler(conn, cache.NewCatalog(conn, nil))

	reward := models.Reward{Name: "Caneca", CostPoints: 300, IsActive: true}
	if errCreate := conn.Create(&reward).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}

	c, w := rewardContext(t, http.MethodPut, "/v0/admin/rewards/1",
		`{"name": "Caneca Edicao Limitada", "cost_points": 450, "is_active": false}`)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.Update(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp models.Reward
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Name != "Caneca Edicao Limitada" || resp.CostPoints != 450 || resp.IsActive {
		t.Fatalf("unexpected reward after update: %+v", resp)
	}
}

func TestUpdateRewardNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := openAdminTestDB(t)
	h := NewRewardHandler(conn, cache.NewCatalog(conn, nil))

	c, w := rewardContext(t, http.MethodPut, "/v0/admin/rewards/42", `{"name": "Brinde", "cost_points": 100}`)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	h.Update(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
