package services

import (
	"context"
	"strings"
	"sync"
)

// Storage names of the vendor keys, as written by the settings form.
const (
	GeminiAPIKey = "GEMINI_API_KEY"
	GroqAPIKey   = "GROQ_API_KEY"
	SerpAPIKey   = "SERP_API_KEY"
)

var CredentialKeys = []string{GeminiAPIKey, GroqAPIKey, SerpAPIKey}

// Credentials is the settings form payload. Empty fields leave the stored
// value untouched.
type Credentials struct {
	GeminiAPIKey string `json:"geminiApiKey,omitempty"`
	GroqAPIKey   string `json:"groqApiKey,omitempty"`
	SerpAPIKey   string `json:"serpApiKey,omitempty"`
}

func (c Credentials) Values() map[string]string {
	values := make(map[string]string, len(CredentialKeys))
	for name, v := range map[string]string{
		GeminiAPIKey: c.GeminiAPIKey,
		GroqAPIKey:   c.GroqAPIKey,
		SerpAPIKey:   c.SerpAPIKey,
	} {
		if v = strings.TrimSpace(v); v != "" {
			values[name] = v
		}
	}
	return values
}

// CredentialProvider hands requesters the key they need right before a call.
// An unset key is returned as "" with a nil error.
type CredentialProvider interface {
	APIKey(ctx context.Context, name string) (string, error)
}

// CredentialStore persists keys per session. Keys are overwritten on every
// save and never validated beyond existence.
type CredentialStore interface {
	GetCredential(ctx context.Context, sessionID, name string) (string, error)
	SetCredentials(ctx context.Context, sessionID string, values map[string]string) error
	// HasCredentials reports whether any key was ever saved for the session.
	HasCredentials(ctx context.Context, sessionID string) (bool, error)
	Ping(ctx context.Context) error
}

// StaticCredentials serves fixed keys, e.g. a key passed in a request header.
type StaticCredentials map[string]string

func (s StaticCredentials) APIKey(_ context.Context, name string) (string, error) {
	return s[name], nil
}

// SessionCredentials reads a session's keys from the store and falls back to
// server-wide keys when the session has none.
type SessionCredentials struct {
	Store     CredentialStore
	SessionID string
	Fallback  StaticCredentials
}

func (s SessionCredentials) APIKey(ctx context.Context, name string) (string, error) {
	key, err := s.Store.GetCredential(ctx, s.SessionID, name)
	if err != nil {
		return "", err
	}
	if key == "" && s.Fallback != nil {
		key = s.Fallback[name]
	}
	return key, nil
}

// requireKey fails with a MissingCredentialError when the key is unset.
func requireKey(ctx context.Context, creds CredentialProvider, name string) (string, error) {
	if creds == nil {
		return "", &MissingCredentialError{Key: name}
	}
	key, err := creds.APIKey(ctx, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(key) == "" {
		return "", &MissingCredentialError{Key: name}
	}
	return key, nil
}

// ─── Memory Store ─────────────────────────────────────────────────────────────

type MemoryCredentialStore struct {
	mu   sync.RWMutex
	keys map[string]map[string]string
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{keys: make(map[string]map[string]string)}
}

func (m *MemoryCredentialStore) GetCredential(_ context.Context, sessionID, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys[sessionID][name], nil
}

func (m *MemoryCredentialStore) SetCredentials(_ context.Context, sessionID string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.keys[sessionID]
	if !ok {
		session = make(map[string]string, len(values))
		m.keys[sessionID] = session
	}
	for name, v := range values {
		session[name] = v
	}
	return nil
}

func (m *MemoryCredentialStore) HasCredentials(_ context.Context, sessionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys[sessionID]) > 0, nil
}

func (m *MemoryCredentialStore) Ping(context.Context) error {
	return nil
}
