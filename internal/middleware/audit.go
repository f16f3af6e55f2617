package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/services"
)

const maxAuditBody = 2000

// Keys whose values never reach the audit table. Matching is on the
// lower-cased key with underscores removed.
var sensitiveKeys = []string{"password", "otp", "token", "secret"}

var authRoutes = map[string]bool{
	"register":        true,
	"login":           true,
	"verify-otp":      true,
	"resend-otp":      true,
	"forgot-password": true,
	"reset-password":  true,
	"auth":            true,
}

// AuditLog records write operations (POST/PUT/DELETE) to system_logs.
func AuditLog(logs *services.SystemLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodDelete {
			c.Next()
			return
		}

		var body interface{}
		if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			body = maskBody(raw)
		}

		c.Next()

		status := c.Writer.Status()
		username := GetUsername(c)
		if username == "" {
			username = bodyUsername(body)
		}
		var uid *uint
		if id := GetUserID(c); id > 0 {
			uid = &id
		}

		module, action := parseRouteInfo(c.FullPath(), method)
		logs.Record(services.Entry{
			Level:     models.LevelForStatus(status),
			Module:    module,
			Action:    action,
			Method:    method,
			Path:      c.Request.URL.Path,
			Status:    status,
			Message:   formatAuditMessage(username, method, c.Request.URL.Path, status),
			UserID:    uid,
			Username:  username,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: c.GetString(ContextRequestID),
			Body:      body,
		})
	}
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// e.g. "/api/tasks/:id" + "PUT" → module="Tasks", action="Update"
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(strings.TrimPrefix(fullPath, "/"), "api/")
	first := strings.SplitN(path, "/", 2)[0]

	switch {
	case first == "":
		module = "Unknown"
	case authRoutes[first]:
		module = "Auth"
	default:
		module = strings.ToUpper(first[:1]) + first[1:]
	}

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	if module == "Auth" {
		action = first
	}
	return module, action
}

func formatAuditMessage(username, method, path string, status int) string {
	var b strings.Builder
	b.WriteString("[Audit] ")
	if username == "" {
		username = "anonymous"
	}
	b.WriteString(username)
	b.WriteString(" ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	if status >= 200 && status < 300 {
		b.WriteString(" OK")
	} else {
		b.WriteString(" Failed")
	}
	return b.String()
}

// maskBody decodes a JSON body and blanks sensitive values. Bodies that are
// not JSON are kept as a truncated string.
func maskBody(raw []byte) interface{} {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		s := string(raw)
		if len(s) > maxAuditBody {
			s = s[:maxAuditBody] + "...[truncated]"
		}
		return s
	}
	return maskValue(v)
}

func maskValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			if isSensitive(k) {
				t[k] = "***"
				continue
			}
			t[k] = maskValue(val)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = maskValue(t[i])
		}
		return t
	default:
		return v
	}
}

func isSensitive(key string) bool {
	k := strings.ToLower(strings.ReplaceAll(key, "_", ""))
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// bodyUsername names the actor of unauthenticated calls such as login.
func bodyUsername(body interface{}) string {
	m, ok := body.(map[string]interface{})
	if !ok {
		return ""
	}
	for _, k := range []string{"username", "email"} {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
