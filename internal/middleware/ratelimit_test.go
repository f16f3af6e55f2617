package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// credentialRouter mounts two public credential endpoints behind one limiter.
func credentialRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "ok"}) }
	router.POST("/login", ok)
	router.POST("/forgot-password", ok)
	return router
}

func post(router *gin.Engine, path, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = ip + ":40000"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	defer rl.Close()
	router := credentialRouter(rl)

	for i := 0; i < 3; i++ {
		if w := post(router, "/login", "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected %d, got %d", i+1, http.StatusOK, w.Code)
		}
	}

	w := post(router, "/login", "10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected %d after burst, got %d", http.StatusTooManyRequests, w.Code)
	}
	if body := w.Body.String(); body != `{"code":429,"message":"too many requests, please try again later"}` {
		t.Errorf("unexpected body %s", body)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("expected Retry-After 1, got %q", got)
	}
}

func TestRateLimit_SeparateBudgetPerRoute(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()
	router := credentialRouter(rl)

	if w := post(router, "/login", "10.0.0.2"); w.Code != http.StatusOK {
		t.Fatalf("login: expected %d, got %d", http.StatusOK, w.Code)
	}
	if w := post(router, "/login", "10.0.0.2"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second login: expected %d, got %d", http.StatusTooManyRequests, w.Code)
	}
	// A locked-out login must not block password recovery
	if w := post(router, "/forgot-password", "10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("forgot-password: expected %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_SeparateBudgetPerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()
	router := credentialRouter(rl)

	post(router, "/login", "10.0.0.3")
	if w := post(router, "/login", "10.0.0.4"); w.Code != http.StatusOK {
		t.Errorf("second client: expected %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_RefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if ok, _ := rl.take("k"); !ok {
		t.Fatal("first take should pass")
	}
	ok, wait := rl.take("k")
	if ok {
		t.Fatal("second take should be refused")
	}
	if wait <= 0 || wait > time.Second {
		t.Errorf("expected wait in (0, 1s], got %v", wait)
	}

	now = now.Add(time.Second)
	if ok, _ := rl.take("k"); !ok {
		t.Error("token should be back after one second")
	}
}

func TestRateLimit_SweepDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.take("idle")
	now = now.Add(limiterIdleTTL - time.Second)
	rl.take("recent")

	now = now.Add(2 * time.Second)
	rl.sweep()

	if n := rl.size(); n != 1 {
		t.Fatalf("expected 1 bucket after sweep, got %d", n)
	}
	if _, ok := rl.buckets["recent"]; !ok {
		t.Error("recent bucket should survive the sweep")
	}
}

func TestRateLimit_CloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Close()
	rl.Close()
}
