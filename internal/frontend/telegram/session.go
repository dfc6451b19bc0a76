package telegram

import (
	"sync"

	"github.com/vadimtrunov/MovieMate/internal/session"
)

// sessionManager keeps per-chat conversation state and access control.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int64]session.State
	allowed  map[int64]bool // nil or empty = allow all
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		sessions: make(map[int64]session.State),
		allowed:  allowed,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// load returns the chat's state, starting a new conversation on first use.
func (sm *sessionManager) load(chatID int64) session.State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[chatID]; ok {
		return s
	}
	s := session.New()
	sm.sessions[chatID] = s
	return s
}

// store replaces the chat's state.
func (sm *sessionManager) store(chatID int64, s session.State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[chatID] = s
}

// reset drops a chat's conversation; the next message starts over.
func (sm *sessionManager) reset(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, chatID)
}
