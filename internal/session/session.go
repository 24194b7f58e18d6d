// Package session implements the server-side login session store.  A session
// is an opaque random ID handed to the browser in a cookie; the user record
// it denotes lives on the server.  Sessions are kept in Redis when a client
// is available so logins survive process restarts; without Redis the store
// degrades to an in-process map, which is fine for development.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/openshelf/internal/model"
)

// CookieName is the name of the session cookie.
const CookieName = "osid"

const keyPrefix = "sess:"

// Data is the denormalized user record attached to an authenticated request.
// It is captured once at login or registration and never re-read mid-session.
type Data struct {
	ID       uint64     `json:"id"`
	Name     string     `json:"name"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

type memEntry struct {
	data    Data
	expires time.Time
}

// Manager creates, resolves and destroys sessions.  It is safe for
// concurrent use.
type Manager struct {
	rdb *redis.Client // nil -> in-process fallback
	ttl time.Duration

	mu  sync.RWMutex
	mem map[string]memEntry
}

// NewManager returns a Manager backed by rdb, or by process memory when rdb
// is nil.
func NewManager(rdb *redis.Client, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, ttl: ttl, mem: make(map[string]memEntry)}
}

// Create persists a new session for the given user record and returns its
// opaque ID.  The write completes before Create returns, so the very next
// request carrying the cookie already resolves the session.
func (m *Manager) Create(ctx context.Context, data Data) (string, error) {
	id, err := randomHex(32)
	if err != nil {
		return "", err
	}
	if m.rdb != nil {
		body, err := json.Marshal(data)
		if err != nil {
			return "", err
		}
		if err := m.rdb.Set(ctx, keyPrefix+id, body, m.ttl).Err(); err != nil {
			return "", err
		}
		return id, nil
	}
	m.mu.Lock()
	m.mem[id] = memEntry{data: data, expires: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	return id, nil
}

// Get resolves a session ID.  The second return value is false when the
// session does not exist or has expired.
func (m *Manager) Get(ctx context.Context, id string) (Data, bool, error) {
	if id == "" {
		return Data{}, false, nil
	}
	if m.rdb != nil {
		body, err := m.rdb.Get(ctx, keyPrefix+id).Bytes()
		if err == redis.Nil {
			return Data{}, false, nil
		}
		if err != nil {
			return Data{}, false, err
		}
		var d Data
		if err := json.Unmarshal(body, &d); err != nil {
			return Data{}, false, err
		}
		return d, true, nil
	}
	m.mu.RLock()
	e, ok := m.mem[id]
	m.mu.RUnlock()
	if !ok {
		return Data{}, false, nil
	}
	if time.Now().After(e.expires) {
		m.mu.Lock()
		delete(m.mem, id)
		m.mu.Unlock()
		return Data{}, false, nil
	}
	return e.data, true, nil
}

// Destroy invalidates a session.  Destroying a session that no longer
// exists is not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if m.rdb != nil {
		return m.rdb.Del(ctx, keyPrefix+id).Err()
	}
	m.mu.Lock()
	delete(m.mem, id)
	m.mu.Unlock()
	return nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// NewCookie builds the session cookie for a freshly created session.
// HttpOnly keeps it away from page scripts; SameSite=Lax lets it ride along
// on top-level navigations from the frontend.
func NewCookie(id string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie builds a cookie that clears the session cookie on the client.
func ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
