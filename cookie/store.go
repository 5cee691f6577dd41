package cookie

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// The document level view of a set of cookies. Reads return every visible
// cookie as "name=value; name=value" and writes take a single
// "name=value;attr=value" assignment, exactly like a browser would.
type Store interface {
	Cookies() string
	SetCookie(assignment string)
}

// A Store that keeps cookies in memory. An assignment with an expiry that
// is not in the future removes the cookie. Path and domain attributes are
// accepted but every cookie shares a single scope. Safe for concurrent
// use.
type MemoryStore struct {
	lock   sync.Mutex
	names  []string
	values map[string]string
}

// Returns every cookie in the order they were first set.
func (m *MemoryStore) Cookies() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	parts := make([]string, 0, len(m.names))
	for _, name := range m.names {
		parts = append(parts, name+"="+m.values[name])
	}
	return strings.Join(parts, "; ")
}

// Applies a single cookie assignment.
func (m *MemoryStore) SetCookie(assignment string) {
	name, value, expires, ok := parseAssignment(assignment)
	if !ok {
		return
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if !expires.IsZero() && !expires.After(time.Now()) {
		m.remove(name)
		return
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = value
}

// Must be called with the lock held.
func (m *MemoryStore) remove(name string) {
	if _, ok := m.values[name]; !ok {
		return
	}
	delete(m.values, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			return
		}
	}
}

// Splits an assignment into its name, value and expiry. The expiry is the
// zero time if the assignment does not carry one or it can not be parsed.
func parseAssignment(assignment string) (
	name, value string,
	expires time.Time,
	ok bool,
) {
	parts := strings.Split(assignment, ";")
	name, value, ok = strings.Cut(parts[0], "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", time.Time{}, false
	}
	for _, attr := range parts[1:] {
		key, val, _ := strings.Cut(attr, "=")
		if strings.EqualFold(strings.TrimSpace(key), "expires") {
			if t, err := http.ParseTime(strings.TrimSpace(val)); err == nil {
				expires = t
			}
		}
	}
	return name, value, expires, true
}

// A Store backed by an HTTP exchange. Cookies are read from the request
// and assignments are written to the response as Set-Cookie headers.
// Assignments made while handling the request are visible to later reads
// through the same HTTPStore.
type HTTPStore struct {
	w   http.ResponseWriter
	mem MemoryStore
}

// Creates a Store reading the cookies of r and writing to w.
func NewHTTPStore(w http.ResponseWriter, r *http.Request) *HTTPStore {
	s := &HTTPStore{w: w}
	for _, c := range r.Cookies() {
		s.mem.SetCookie(c.Name + "=" + c.Value)
	}
	return s
}

func (s *HTTPStore) Cookies() string {
	return s.mem.Cookies()
}

func (s *HTTPStore) SetCookie(assignment string) {
	s.w.Header().Add("Set-Cookie", assignment)
	s.mem.SetCookie(assignment)
}
