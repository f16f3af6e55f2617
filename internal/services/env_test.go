package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/projectpulse/backend/internal/cache"
	"github.com/projectpulse/backend/internal/config"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// recordingQueue captures outbound mail instead of sending it.
type recordingQueue struct {
	mu   sync.Mutex
	msgs []*MailMessage
}

func (q *recordingQueue) Enqueue(msg *MailMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) last(t *testing.T) *MailMessage {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	require.NotEmpty(t, q.msgs, "no mail was queued")
	return q.msgs[len(q.msgs)-1]
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

type testEnv struct {
	db   *gorm.DB
	cfg  *config.Config
	mail *recordingQueue
	auth *AuthService
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Auth.BcryptCost = bcrypt.MinCost
	for _, o := range opts {
		o(cfg)
	}

	db := testutil.OpenDB(t, models.GuardOptions{GuardDelete: cfg.Tasks.GuardDelete})
	mail := &recordingQueue{}
	return &testEnv{
		db:   db,
		cfg:  cfg,
		mail: mail,
		auth: NewAuthService(db, cfg, mail, cache.NewMemory()),
	}
}

func otpMode(cfg *config.Config) { cfg.Auth.RegistrationMode = config.RegistrationOTP }

// user inserts an account directly. Its username is the lower-cased first
// word of name and its password is "secret".
func (e *testEnv) user(t *testing.T, name, role string) *models.User {
	t.Helper()
	first := strings.ToLower(strings.Fields(name)[0])
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	r := models.ParseRole(role)
	u := &models.User{
		Name:       name,
		Email:      first + "@gmail.com",
		Username:   first,
		Password:   string(hash),
		Role:       r,
		Status:     models.StatusPtr(models.InitialStatus(r)),
		IsVerified: true,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) reload(t *testing.T, u *models.User) *models.User {
	t.Helper()
	var fresh models.User
	require.NoError(t, e.db.First(&fresh, u.ID).Error)
	return &fresh
}

func (e *testEnv) project(t *testing.T, name string, managerID uint) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, ManagerID: &managerID, Status: models.ProjectPlanning}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) setProjectStatus(t *testing.T, p *models.Project, st models.ProjectStatus) {
	t.Helper()
	require.NoError(t, e.db.Model(p).Update("status", st).Error)
}

func (e *testEnv) task(t *testing.T, projectID uint, name string, assignee uint, status string, hours float64, resources string) *models.Task {
	t.Helper()
	st, err := models.ParseTaskStatus(status)
	require.NoError(t, err)
	task := &models.Task{
		ProjectID:      projectID,
		Name:           name,
		AssignedTo:     &assignee,
		Priority:       models.PriorityMedium,
		Status:         st,
		EstimatedHours: hours,
		Resources:      resources,
	}
	require.NoError(t, e.db.Create(task).Error)
	return task
}

func uintPtr(v uint) *uint       { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }
