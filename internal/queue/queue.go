package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/commands"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/telegram"
)

type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusComplete TaskStatus = "complete"
	TaskStatusFailed   TaskStatus = "failed"
)

const defaultPollInterval = time.Second

type Task struct {
	ID          int64
	Command     string
	UpdateData  []byte
	RetryCount  int
	MaxRetries  int
	RetryDelay  time.Duration
	LastAttempt time.Time
	NextAttempt time.Time
	Status      TaskStatus
	Update      *telegram.Update
}

func (t *Task) GetUpdate() (*telegram.Update, error) {
	if t.Update != nil {
		return t.Update, nil
	}

	var update telegram.Update
	if err := json.Unmarshal(t.UpdateData, &update); err != nil {
		return nil, fmt.Errorf("failed to unmarshal update data: %w", err)
	}
	t.Update = &update
	return t.Update, nil
}

// Queue persists command invocations in the tasks table and runs them with a
// per-command rate limit and concurrency cap.
type Queue struct {
	db                database.Database
	mu                sync.RWMutex
	commandLimiters   map[string]*rate.Limiter
	commandSemaphores map[string]chan struct{}
	logger            logger.Logger
	pollInterval      time.Duration
}

func NewQueue(db database.Database, l logger.Logger) *Queue {
	return &Queue{
		db:                db,
		commandLimiters:   make(map[string]*rate.Limiter),
		commandSemaphores: make(map[string]chan struct{}),
		logger:            l,
		pollInterval:      defaultPollInterval,
	}
}

func (q *Queue) Add(ctx context.Context, cmd commands.Command, update telegram.Update) error {
	cmdName := cmd.Name()
	if cmdName == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	cfg := cmd.GetQueueConfig()

	q.logger.WithFields(logger.Fields{
		"command":   cmdName,
		"update_id": update.UpdateID,
	}).Debug("Adding task to queue")

	updateData, err := json.Marshal(update)
	if err != nil {
		return err
	}

	_, err = q.db.ExecWithRetry(ctx, `
        INSERT INTO tasks (command, update_data, max_retries, retry_delay, next_attempt)
        VALUES (?, ?, ?, ?, ?)
    `, cmdName, updateData, cfg.MaxRetries, int64(cfg.RetryDelay), time.Now())
	if err != nil {
		q.logger.WithError(err).
			WithField("command", cmdName).
			Error("Failed to add task")
		return err
	}

	q.logger.WithField("command", cmdName).Debug("Task added successfully")
	return nil
}

// Start launches workers for every queued command. It returns immediately;
// workers stop when ctx is done.
func (q *Queue) Start(ctx context.Context, handlers map[string]commands.Command) {
	for name, handler := range handlers {
		q.StartQueue(ctx, name, handler)
	}
}

func (q *Queue) StartQueue(ctx context.Context, name string, handler commands.Command) {
	cfg := handler.GetQueueConfig()
	requests := max(cfg.Throttle.Requests, 1)
	concurrency := max(cfg.Throttle.Concurrency, 1)
	interval := cfg.Throttle.Period / time.Duration(requests)

	q.logger.WithFields(logger.Fields{
		"command":     name,
		"period":      cfg.Throttle.Period,
		"requests":    requests,
		"interval":    interval,
		"concurrency": concurrency,
	}).Info("Configured rate limiter")

	limiter := rate.NewLimiter(rate.Every(interval), requests)
	sem := make(chan struct{}, concurrency)

	q.mu.Lock()
	q.commandLimiters[name] = limiter
	q.commandSemaphores[name] = sem
	q.mu.Unlock()

	for range concurrency {
		go q.taskWorker(ctx, name, handler, sem, limiter)
	}
}

func (q *Queue) limiter(command string) (*rate.Limiter, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	lim, ok := q.commandLimiters[command]
	return lim, ok
}

func (q *Queue) handleTaskError(ctx context.Context, task Task, cause error) error {
	log := q.logger.WithFields(logger.Fields{
		"command":     task.Command,
		"task_id":     task.ID,
		"retry_count": task.RetryCount,
		"max_retries": task.MaxRetries,
	})

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log = log.WithField("timeout_reason", "deadline_exceeded")
	}

	if errType := ai.GetErrorType(cause); errType != ai.ErrorTypeUnknown && !ai.IsRetryableError(cause) {
		log.WithField("error_type", errType).Warn("Permanent failure, marking as failed")
		return q.updateTaskStatus(context.WithoutCancel(ctx), task.ID, TaskStatusFailed)
	}

	if task.RetryCount >= task.MaxRetries {
		log.Warn("Max retries exceeded, marking as failed")
		return q.updateTaskStatus(context.WithoutCancel(ctx), task.ID, TaskStatusFailed)
	}

	delay := task.RetryDelay
	if limiter, exists := q.limiter(task.Command); exists {
		delay = max(delay, limiter.Reserve().Delay())
	}

	nextAttempt := time.Now().Add(delay)
	_, err := q.db.ExecWithRetry(context.WithoutCancel(ctx), `
		UPDATE tasks
		SET status = ?, retry_count = retry_count + 1, next_attempt = ?
		WHERE id = ?
	`, TaskStatusPending, nextAttempt, task.ID)
	if err != nil {
		log.WithError(err).Error("Failed to reschedule task")
		return err
	}

	log.WithField("next_attempt", nextAttempt).Info("Task rescheduled")
	return nil
}

func (q *Queue) taskWorker(ctx context.Context, command string, h commands.Command, sem chan struct{}, lim *rate.Limiter) {
	log := q.logger.WithField("command", command)
	log.Debug("Worker started")
	defer func() {
		log.Debug("Worker stopped")
		if r := recover(); r != nil {
			log.Error(fmt.Sprintf("recovered from panic: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
			task, err := q.lockAndGetTask(ctx, command)
			<-sem

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Error("Failed to get task")
				continue
			}
			if task == nil {
				log.Trace("No tasks available")
				select {
				case <-ctx.Done():
					return
				case <-time.After(q.pollInterval):
				}
				continue
			}

			reserve := lim.Reserve()
			if delay := reserve.Delay(); delay > 0 {
				log.WithFields(logger.Fields{
					"task":     task.ID,
					"wait_for": delay.String(),
				}).Debug("Rate limiting - delaying task")

				select {
				case <-time.After(delay):
				case <-ctx.Done():
					reserve.Cancel()
					log.Debug("Cancelled due to context")
					return
				}
			}

			if err := q.handleTask(ctx, *task, h); err != nil {
				log.WithError(err).WithField("task_id", task.ID).Error("Task processing failed")
			}
		}
	}
}

func (q *Queue) lockAndGetTask(ctx context.Context, command string) (*Task, error) {
	var task Task
	var retryDelay int64
	err := q.db.GetDB().QueryRowContext(ctx, `
        UPDATE tasks
        SET status = ?, last_attempt = ?
        WHERE id = (
            SELECT id FROM tasks
            WHERE command = ? AND status = ? AND next_attempt <= ?
            ORDER BY id ASC
            LIMIT 1
        )
        RETURNING id, command, update_data, retry_count, max_retries, retry_delay`,
		TaskStatusRunning, time.Now(), command, TaskStatusPending, time.Now(),
	).Scan(
		&task.ID, &task.Command, &task.UpdateData,
		&task.RetryCount, &task.MaxRetries, &retryDelay,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	task.RetryDelay = time.Duration(retryDelay)
	task.Status = TaskStatusRunning

	return &task, nil
}

func (q *Queue) updateTaskStatus(ctx context.Context, taskID int64, status TaskStatus) error {
	q.logger.WithFields(logger.Fields{
		"task_id": taskID,
	}).Info("Marking task as " + status)

	_, err := q.db.ExecWithRetry(ctx,
		"UPDATE tasks SET status = ? WHERE id = ?",
		status, taskID)
	return err
}

func (q *Queue) handleTask(ctx context.Context, task Task, handler commands.Command) error {
	timeout := handler.GetQueueConfig().Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	log := q.logger.WithFields(logger.Fields{
		"command": task.Command,
		"task_id": task.ID,
	})

	update, err := task.GetUpdate()
	if err != nil {
		log.WithError(err).Error("Dropping task with unreadable update")
		return q.updateTaskStatus(ctx, task.ID, TaskStatusFailed)
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.WithField("timeout", timeout.String()).Info("Processing task")
	start := time.Now()

	resultCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- fmt.Errorf("command panicked: %v", r)
			}
		}()
		resultCh <- handler.Execute(taskCtx, *update)
	}()

	select {
	case err := <-resultCh:
		if err != nil {
			log.WithError(err).Error("Handler execution failed")
			return q.handleTaskError(taskCtx, task, err)
		}
	case <-taskCtx.Done():
		log.WithFields(logger.Fields{
			"actual_duration": time.Since(start).String(),
			"retry_count":     task.RetryCount,
		}).Warn("Execution timeout exceeded")
		return q.handleTaskError(taskCtx, task, taskCtx.Err())
	}

	if err := q.updateTaskStatus(ctx, task.ID, TaskStatusComplete); err != nil {
		return fmt.Errorf("failed to mark task as complete: %w", err)
	}

	log.WithField("duration", time.Since(start).String()).Info("Task completed successfully")
	return nil
}
