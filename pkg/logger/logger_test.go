package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// capture points the global logger at a buffer until the test ends.
func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Setup(Options{Level: level, Output: &buf})
	t.Cleanup(func() { Init("info") })
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %s: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

// expectFields checks each key of want against the logged line.
func expectFields(t *testing.T, line map[string]interface{}, want map[string]interface{}) {
	t.Helper()
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s = %v, expected %v", k, line[k], v)
		}
	}
}

func requestRouter() *gin.Engine {
	r := gin.New()
	r.Use(GinLogger(), GinRecovery())
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		c.Set("username", "admin")
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/tasks/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "Task not found"})
	})
	r.POST("/api/tasks", func(c *gin.Context) { panic("boom") })
	return r
}

func TestSetup_LevelFiltering(t *testing.T) {
	buf := capture(t, "warn")

	Info().Msg("hidden")
	Warnf("project %d locked", 3)

	got := lines(t, buf)
	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	expectFields(t, got[0], map[string]interface{}{
		"level":   "warn",
		"message": "project 3 locked",
		"service": "projectpulse",
	})
}

func TestSetup_BadLevelFallsBackToInfo(t *testing.T) {
	buf := capture(t, "loud")

	Debug().Msg("hidden")
	Infof("ready on %s", ":5000")

	got := lines(t, buf)
	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	expectFields(t, got[0], map[string]interface{}{"message": "ready on :5000"})
}

func TestGinLogger_TagsRequest(t *testing.T) {
	buf := capture(t, "info")

	w := httptest.NewRecorder()
	requestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/9?verbose=1", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}

	got := lines(t, buf)
	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	expectFields(t, got[0], map[string]interface{}{
		"level":      "warn",
		"request_id": "req-1",
		"user":       "admin",
		"path":       "/api/tasks/9",
		"query":      "verbose=1",
		"status":     float64(404),
	})
}

func TestGinLogger_HealthOnlyAtDebug(t *testing.T) {
	buf := capture(t, "info")
	requestRouter().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := lines(t, buf); len(got) != 0 {
		t.Errorf("health check logged at info: %v", got)
	}
}

func TestGinRecovery(t *testing.T) {
	buf := capture(t, "info")

	w := httptest.NewRecorder()
	requestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/tasks", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"code":500,"message":"internal server error"}` {
		t.Errorf("body = %s", got)
	}

	got := lines(t, buf)
	if len(got) == 0 {
		t.Fatal("panic was not logged")
	}
	expectFields(t, got[0], map[string]interface{}{
		"message": "panic recovered",
		"panic":   "boom",
	})
}
