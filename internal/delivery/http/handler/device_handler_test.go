package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"digipiggy-hub/internal/store"
	"digipiggy-hub/internal/usecase/piggy"

	"github.com/gin-gonic/gin"
)

type memSlot struct {
	mu      sync.Mutex
	data    []byte
	written bool
}

func (m *memSlot) Load(ctx context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, m.written, nil
}

func (m *memSlot) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.written = true
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New(&memSlot{}, nil)
	st.Hydrate(context.Background())
	service := piggy.NewService(st, nil)

	router := gin.New()
	v1 := router.Group("/api/v1")
	NewDeviceHandler(service).RegisterRoutes(v1)
	NewGoalHandler(service).RegisterRoutes(v1)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createDevice(t *testing.T, router *gin.Engine, id string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", gin.H{
		"id":   id,
		"name": "Piggy " + id,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating device, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateDevice_Created(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", gin.H{
		"id":   "device_1234",
		"name": "DigiPiggy_1234",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID         string `json:"id"`
			Balance    int64  `json:"balance"`
			WifiStatus string `json:"wifi_status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Data.ID != "device_1234" || resp.Data.Balance != 0 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
}

func TestCreateDevice_InvalidBody(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", gin.H{"id": "device_1234"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", w.Code)
	}
}

func TestGetDevice_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/devices/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAdjustBalance_FlowThroughAPI(t *testing.T) {
	router := newTestRouter(t)
	createDevice(t, router, "d1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices/d1/balance", gin.H{
		"delta_cents": 5000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Overdraft comes back clamped, not rejected.
	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/d1/balance", gin.H{
		"delta_cents": -8000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Device struct {
				Balance int64 `json:"balance"`
			} `json:"device"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Device.Balance != 0 {
		t.Fatalf("expected clamped balance 0, got %d", resp.Data.Device.Balance)
	}
}

func TestAdjustBalance_UnknownDevice(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices/missing/balance", gin.H{
		"delta_cents": 5000,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreateGoal_AndList(t *testing.T) {
	router := newTestRouter(t)
	createDevice(t, router, "d1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/goals", gin.H{
		"device_id":     "d1",
		"title":         "Bicycle",
		"emoji":         "🚲",
		"target_amount": 10000,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/devices/d1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Data struct {
			Goals []struct {
				Title string `json:"title"`
			} `json:"goals"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data.Goals) != 1 || resp.Data.Goals[0].Title != "Bicycle" {
		t.Fatalf("unexpected goals: %s", w.Body.String())
	}
}

func TestCreateGoal_NonPositiveTarget(t *testing.T) {
	router := newTestRouter(t)
	createDevice(t, router, "d1")

	w := doJSON(t, router, http.MethodPost, "/api/v1/goals", gin.H{
		"device_id":     "d1",
		"title":         "Bicycle",
		"target_amount": -100,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive target, got %d", w.Code)
	}
}

func TestDeleteDevice_ThenGone(t *testing.T) {
	router := newTestRouter(t)
	createDevice(t, router, "d1")

	w := doJSON(t, router, http.MethodDelete, "/api/v1/devices/d1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/devices/d1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}
