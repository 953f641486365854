package cancel

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrCancelledByUser is the cause attached to contexts cancelled via Cancel.
var ErrCancelledByUser = errors.New("cancelled by user")

// Manager tracks in-flight requests keyed by the bot's status message so an
// inline button can cancel them.
type Manager struct {
	requests map[string]*activeRequest
	mu       sync.RWMutex
}

type activeRequest struct {
	cancel    context.CancelCauseFunc
	chatID    int64
	messageID int
	ownerID   int64
	command   string
}

type ActiveRequestInfo struct {
	ChatID    int64
	MessageID int
	OwnerID   int64
	Command   string
}

func NewManager() *Manager {
	return &Manager{
		requests: make(map[string]*activeRequest),
	}
}

func makeKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%d:%d", chatID, messageID)
}

// Register derives a cancellable context from parent. The returned func
// cancels the context and forgets the request.
func (m *Manager) Register(parent context.Context, chatID int64, messageID int, ownerID int64, command string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	m.mu.Lock()
	m.requests[makeKey(chatID, messageID)] = &activeRequest{
		cancel:    cancel,
		chatID:    chatID,
		messageID: messageID,
		ownerID:   ownerID,
		command:   command,
	}
	m.mu.Unlock()

	return ctx, func() {
		cancel(context.Canceled)
		m.Unregister(chatID, messageID)
	}
}

func (m *Manager) Unregister(chatID int64, messageID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, makeKey(chatID, messageID))
}

// Cancel stops the request if requesterID owns it. Admins pass force.
func (m *Manager) Cancel(chatID int64, messageID int, requesterID int64, force bool) bool {
	m.mu.RLock()
	req, exists := m.requests[makeKey(chatID, messageID)]
	m.mu.RUnlock()

	if !exists || (!force && req.ownerID != requesterID) {
		return false
	}

	req.cancel(ErrCancelledByUser)
	return true
}

func (m *Manager) IsActive(chatID int64, messageID int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.requests[makeKey(chatID, messageID)]
	return exists
}

func (m *Manager) GetActiveRequest(chatID int64, messageID int) *ActiveRequestInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, exists := m.requests[makeKey(chatID, messageID)]
	if !exists {
		return nil
	}
	return &ActiveRequestInfo{
		ChatID:    req.chatID,
		MessageID: req.messageID,
		OwnerID:   req.ownerID,
		Command:   req.command,
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// CancelledByUser reports whether ctx was stopped through Cancel.
func CancelledByUser(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrCancelledByUser)
}

// CallbackData is the data of the inline button that cancels the request
// attached to the button's message.
const CallbackData = "cancel"
