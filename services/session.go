package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Notification struct {
	Level   string `json:"level"` // "success", "warning" or "error"
	Message string `json:"message"`
}

// ViewState is what the front end renders for one session.
type ViewState struct {
	SessionID    string        `json:"session_id"`
	Status       Status        `json:"status"`
	Chatting     bool          `json:"chatting"`
	Plan         string        `json:"plan"`
	Flights      []Flight      `json:"flights"`
	Messages     []Message     `json:"messages"`
	Notification *Notification `json:"notification,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ─── Session ──────────────────────────────────────────────────────────────────

// Session holds the view-model of one browser session. Only the controller
// mutates plan and flights; only the chat mutates messages.
type Session struct {
	mu           sync.Mutex
	id           string
	status       Status
	chatting     bool
	plan         string
	planVersion  int
	flights      []Flight
	messages     []Message
	notification *Notification
	updatedAt    time.Time
}

func newSession(id string) *Session {
	return &Session{
		id:        id,
		status:    StatusIdle,
		flights:   []Flight{},
		messages:  []Message{},
		updatedAt: time.Now().UTC(),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Snapshot() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	var note *Notification
	if s.notification != nil {
		n := *s.notification
		note = &n
	}
	return ViewState{
		SessionID:    s.id,
		Status:       s.status,
		Chatting:     s.chatting,
		Plan:         s.plan,
		Flights:      append([]Flight{}, s.flights...),
		Messages:     append([]Message{}, s.messages...),
		Notification: note,
		UpdatedAt:    s.updatedAt,
	}
}

// notify is a no-op while a submission is in flight; that submission owns
// the notification until it finishes.
func (s *Session) notify(level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusSubmitting {
		return
	}
	s.notification = &Notification{Level: level, Message: msg}
	s.updatedAt = time.Now().UTC()
}

// beginSubmit moves idle → submitting.
func (s *Session) beginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusSubmitting {
		return ErrBusy
	}
	s.status = StatusSubmitting
	s.notification = nil
	s.updatedAt = time.Now().UTC()
	return nil
}

// finishSubmit commits a new plan and returns to idle. A new plan starts a
// new conversation.
func (s *Session) finishSubmit(plan string, flights []Flight, note *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flights == nil {
		flights = []Flight{}
	}
	s.plan = plan
	s.planVersion++
	s.flights = flights
	s.messages = []Message{}
	s.notification = note
	s.status = StatusIdle
	s.updatedAt = time.Now().UTC()
}

// failSubmit returns to idle keeping the previous plan.
func (s *Session) failSubmit(note *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notification = note
	s.status = StatusIdle
	s.updatedAt = time.Now().UTC()
}

// chatTurn is one follow-up question in flight: the user message is already
// in the transcript and resolve appends the answer.
type chatTurn struct {
	session     *Session
	plan        string
	planVersion int
	question    string
}

// beginChat appends the user message and marks the chat busy in one step.
func (s *Session) beginChat(question string) (*chatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chatting {
		return nil, ErrBusy
	}
	if s.plan == "" {
		return nil, ErrNoPlan
	}
	s.messages = append(s.messages, Message{Role: RoleUser, Content: question})
	s.chatting = true
	s.updatedAt = time.Now().UTC()
	return &chatTurn{session: s, plan: s.plan, planVersion: s.planVersion, question: question}, nil
}

// resolve appends the assistant reply. If a new plan replaced the one the
// question was about, the transcript was reset and the reply is dropped.
func (t *chatTurn) resolve(reply string) {
	s := t.session
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatting = false
	if s.planVersion == t.planVersion {
		s.messages = append(s.messages, Message{Role: RoleAssistant, Content: reply})
	}
	s.updatedAt = time.Now().UTC()
}

// ─── Session Store ────────────────────────────────────────────────────────────

// SessionStore keeps sessions in memory only; they do not survive a restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

func (st *SessionStore) Create() *Session {
	s := newSession(uuid.New().String())
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// Resume returns the session with the given ID, creating an empty one if it
// is not in memory. Only well-formed session IDs are accepted.
func (st *SessionStore) Resume(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s, true
	}
	s := newSession(id)
	st.sessions[id] = s
	return s, true
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
