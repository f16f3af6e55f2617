package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/projectpulse/backend/internal/config"
	"github.com/projectpulse/backend/pkg/logger"
)

const (
	TaskTypeMail = "mail:send"
	mailQueue    = "mail"
)

// MailQueue hands messages off for delivery. Enqueue never blocks on SMTP.
type MailQueue interface {
	// Enqueue schedules msg for delivery
	Enqueue(msg *MailMessage) error
	// IsAsync returns true if delivery happens in a separate worker process
	IsAsync() bool
	// Close flushes in-flight deliveries and releases resources
	Close() error
}

// NewMailQueue picks the asynq queue when Redis is enabled and reachable and
// falls back to in-process delivery otherwise.
func NewMailQueue(cfg *config.Config, mailer Mailer) MailQueue {
	if cfg.Redis.Enabled {
		queue, err := NewAsyncMailQueue(&cfg.Redis)
		if err != nil {
			logger.Warnf("[MailQueue] Redis unavailable, falling back to sync mode: %v", err)
			return NewSyncMailQueue(mailer)
		}
		logger.Infof("[MailQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
		return queue
	}
	logger.Infof("[MailQueue] Sync queue initialized (Redis disabled)")
	return NewSyncMailQueue(mailer)
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncMailQueue implements MailQueue using asynq (Redis-based)
type AsyncMailQueue struct {
	client *asynq.Client
}

func NewAsyncMailQueue(cfg *config.RedisConfig) (*AsyncMailQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	// Verify the connection up front so boot can fall back to sync mode.
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncMailQueue{client: client}, nil
}

func (q *AsyncMailQueue) Enqueue(msg *MailMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(asynq.NewTask(TaskTypeMail, payload),
		asynq.Queue(mailQueue),
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("id", info.ID).Str("queue", info.Queue).Msg("[MailQueue] mail enqueued")
	return nil
}

func (q *AsyncMailQueue) IsAsync() bool { return true }

func (q *AsyncMailQueue) Close() error {
	return q.client.Close()
}

// SyncMailQueue delivers each message on its own goroutine.
type SyncMailQueue struct {
	mailer Mailer
	wg     sync.WaitGroup
}

func NewSyncMailQueue(mailer Mailer) *SyncMailQueue {
	return &SyncMailQueue{mailer: mailer}
}

func (q *SyncMailQueue) Enqueue(msg *MailMessage) error {
	if q.mailer == nil {
		logger.Warnf("[SyncMailQueue] no mailer set, message to %v dropped", msg.To)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := q.mailer.Send(ctx, msg); err != nil {
			logger.Error().Err(err).Strs("to", msg.To).Msg("[SyncMailQueue] delivery failed")
		}
	}()
	return nil
}

func (q *SyncMailQueue) IsAsync() bool { return false }

// Close waits for deliveries already started.
func (q *SyncMailQueue) Close() error {
	q.wg.Wait()
	return nil
}

// MailWorker consumes mail:send tasks from Redis.
type MailWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	mailer Mailer

	mu      sync.Mutex
	running bool
}

// NewMailWorker returns nil when Redis is disabled.
func NewMailWorker(cfg *config.RedisConfig, mailer Mailer) *MailWorker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				mailQueue: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error().Err(err).Str("type", task.Type()).Msg("[MailWorker] task failed")
			}),
		},
	)

	w := &MailWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		mailer: mailer,
	}
	w.mux.HandleFunc(TaskTypeMail, w.handleMail)
	return w
}

func (w *MailWorker) handleMail(ctx context.Context, t *asynq.Task) error {
	var msg MailMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		// A malformed payload will never succeed, do not retry it.
		return fmt.Errorf("decode mail payload: %v: %w", err, asynq.SkipRetry)
	}
	return w.mailer.Send(ctx, &msg)
}

// Start begins processing tasks in the background.
func (w *MailWorker) Start() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.running = true
	logger.Infof("[MailWorker] started")
	return nil
}

// Stop drains in-flight tasks and shuts the worker down.
func (w *MailWorker) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.server.Shutdown()
	w.running = false
	logger.Infof("[MailWorker] stopped")
}
