package services

import (
	"testing"
	"time"

	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemLog_RecordAndList(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{})
	svc := NewSystemLogService(db)

	uid := uint(1)
	svc.Record(Entry{Module: "Auth", Action: "login", Method: "POST", Path: "/login", Status: 200,
		Message: "[Audit] root POST /login OK", Username: "root", UserID: &uid,
		Body: map[string]string{"username": "root", "password": "***"}})
	svc.Record(Entry{Module: "Tasks", Action: "Create", Method: "POST", Path: "/api/tasks", Status: 400,
		Message: "[Audit] lena POST /api/tasks Failed"})
	svc.Record(Entry{Module: "Tasks", Action: "Delete", Method: "DELETE", Path: "/api/tasks/3", Status: 200,
		Message: "[Audit] lena DELETE /api/tasks/3 OK"})

	res, err := svc.List(&SystemLogListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.PageSize)

	first := res.Items[len(res.Items)-1]
	assert.Equal(t, models.LogInfo, first.Level)
	assert.Equal(t, "/login", first.Path)
	assert.JSONEq(t, `{"username":"root","password":"***"}`, first.Body)

	res, err = svc.List(&SystemLogListRequest{Module: "Tasks", Method: "delete"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "/api/tasks/3", res.Items[0].Path)

	res, err = svc.List(&SystemLogListRequest{Failed: true})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, models.LogWarning, res.Items[0].Level, "level follows the status when unset")

	res, err = svc.List(&SystemLogListRequest{Search: "Failed", Level: "warning"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	res, err = svc.List(&SystemLogListRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	modules, err := svc.GetModules()
	require.NoError(t, err)
	assert.Equal(t, []string{"Auth", "Tasks"}, modules)
}

func TestSystemLog_Cleanup(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{})
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.SystemLog{Module: "auth", Action: "old", CreatedAt: now.AddDate(0, 0, -40)}).Error)
	require.NoError(t, db.Create(&models.SystemLog{Module: "auth", Action: "recent", CreatedAt: now.AddDate(0, 0, -1)}).Error)

	sched := NewAuditCleanupScheduler(db, 30, "")
	sched.now = func() time.Time { return now }

	assert.Equal(t, int64(1), sched.RunOnce())
	// Same day: the lock is already held.
	require.NoError(t, db.Create(&models.SystemLog{Module: "auth", Action: "old2", CreatedAt: now.AddDate(0, 0, -50)}).Error)
	assert.Zero(t, sched.RunOnce())

	// Next day runs again.
	now = now.AddDate(0, 0, 1)
	assert.Equal(t, int64(1), sched.RunOnce())

	var left []models.SystemLog
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "recent", left[0].Action)
}

func TestSystemLog_CleanupDisabled(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{})
	require.NoError(t, db.Create(&models.SystemLog{Module: "auth", CreatedAt: time.Now().AddDate(-1, 0, 0)}).Error)

	sched := NewAuditCleanupScheduler(db, 0, "")
	assert.Zero(t, sched.RunOnce())

	var n int64
	db.Model(&models.SystemLog{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestAuditCleanupScheduler_InvalidSpec(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{})
	sched := NewAuditCleanupScheduler(db, 30, "not a cron spec")
	assert.Error(t, sched.Start())
	sched.Stop()
}
