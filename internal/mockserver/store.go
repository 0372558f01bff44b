package mockserver

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/chatstream/observability"
)

// Placeholder session names replaced by the first user message.
const (
	nameNewChat = "New Chat"
	nameLoading = "Loading..."
)

// User is a registered playground user.
type User struct {
	ID           int
	Username     string
	PasswordHash string
	Role         string
	Location     string
	Description  string
}

// Session is a chat session owned by one user.
type Session struct {
	ID        string
	UserID    int
	Username  string
	Name      string
	CreatedAt time.Time
	seq       int
}

// Chat is one stored message.
type Chat struct {
	ID        int
	UserID    int
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Store keeps users, sessions and chats in memory.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*User
	sessions map[string]*Session
	chats    []*Chat
	nextID   int
	nextSeq  int
	now      func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*User),
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// AddUser registers u and returns it with its ID set.
func (s *Store) AddUser(u User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	s.users[u.Username] = &u
	return u
}

// User looks up a user by name.
func (s *Store) User(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// CreateSession starts a session for u.
func (s *Store) CreateSession(u User, name string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Username:  u.Username,
		Name:      name,
		CreatedAt: s.now().UTC(),
		seq:       s.nextSeq,
	}
	s.sessions[sess.ID] = sess
	return *sess
}

// Session returns a session owned by userID.
func (s *Store) Session(userID int, id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return Session{}, false
	}
	return *sess, true
}

// Sessions returns the sessions of userID, newest first.
func (s *Store) Sessions(userID int) []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, *sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

// DeleteSession removes a session owned by userID and its chats.
func (s *Store) DeleteSession(userID int, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return false
	}
	delete(s.sessions, id)
	kept := s.chats[:0]
	for _, c := range s.chats {
		if c.SessionID != id {
			kept = append(kept, c)
		}
	}
	s.chats = kept
	return true
}

// AddChat stores a message in sessionID. A placeholder session name is
// replaced by the first user message.
func (s *Store) AddChat(userID int, sessionID, role, content string) Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := &Chat{
		ID:        s.nextID,
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	s.chats = append(s.chats, c)
	if sess, ok := s.sessions[sessionID]; ok && role == "user" && isPlaceholder(sess.Name) {
		sess.Name = content
	}
	return *c
}

// Chats returns the messages of sessionID written by userID in order.
func (s *Store) Chats(userID int, sessionID string) []Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Chat
	for _, c := range s.chats {
		if c.UserID == userID && c.SessionID == sessionID {
			out = append(out, *c)
		}
	}
	return out
}

// UserChats returns every message of userID in order.
func (s *Store) UserChats(userID int) []Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Chat
	for _, c := range s.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out
}

// Title is the display title of sess: its first user message, else a
// custom name, else "New Chat".
func (s *Store) Title(sess Session) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chats {
		if c.SessionID == sess.ID && c.Role == "user" && c.Content != "" {
			return c.Content
		}
	}
	if sess.Name != "" && !isPlaceholder(sess.Name) {
		return sess.Name
	}
	return nameNewChat
}

// MessageCount returns the number of messages in sessionID.
func (s *Store) MessageCount(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.chats {
		if c.SessionID == sessionID {
			n++
		}
	}
	return n
}

func isPlaceholder(name string) bool {
	return name == nameNewChat || name == nameLoading
}

// CheckHealth reports the store sizes. A store without users is degraded
// since nobody can log in.
func (s *Store) CheckHealth(context.Context) observability.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := observability.Health{
		Name:   "store",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"users":    strconv.Itoa(len(s.users)),
			"sessions": strconv.Itoa(len(s.sessions)),
			"chats":    strconv.Itoa(len(s.chats)),
		},
	}
	if len(s.users) == 0 {
		h.Status = observability.HealthStatusDegraded
		h.Message = "no users registered"
	}
	return h
}
