// Package identity maps live connections to display nicknames and, when
// known, persistent account ids. Nothing here outlives the connection.
package identity

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const MaxNicknameRunes = 24

type entry struct {
	nickname  string
	accountID string
}

type Map struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMap() *Map {
	return &Map{entries: make(map[string]entry)}
}

// Bind associates a connection with an account. Called at connect time
// when the session already resolves and again on a late "identify";
// later calls overwrite.
func (m *Map) Bind(conn, accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[conn]
	e.accountID = accountID
	m.entries[conn] = e
}

// SetNickname stores a normalized nickname and returns the name that will
// be displayed. Blank input keeps the fallback.
func (m *Map) SetNickname(conn, nickname string) string {
	clean := Normalize(nickname)

	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[conn]
	e.nickname = clean
	m.entries[conn] = e

	if clean == "" {
		return Fallback(conn)
	}
	return clean
}

// Nickname never returns an empty string.
func (m *Map) Nickname(conn string) string {
	m.mu.RLock()
	e := m.entries[conn]
	m.mu.RUnlock()

	if e.nickname == "" {
		return Fallback(conn)
	}
	return e.nickname
}

func (m *Map) Account(conn string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[conn]
	if !ok || e.accountID == "" {
		return "", false
	}
	return e.accountID, true
}

func (m *Map) Forget(conn string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, conn)
}

func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Fallback derives a stable display name from the connection id.
func Fallback(conn string) string {
	short := conn
	if len(short) > 4 {
		short = short[:4]
	}
	return "Player-" + short
}

// Normalize folds full/half width forms, composes to NFC, drops control
// characters, collapses whitespace and caps the length.
func Normalize(s string) string {
	s = norm.NFC.String(width.Fold.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > MaxNicknameRunes {
		runes = runes[:MaxNicknameRunes]
	}
	return strings.TrimSpace(string(runes))
}
