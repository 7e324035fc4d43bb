// Package dialog implements the per-user conversational state machine: a
// keyed in-memory store of short linear input flows. State lives only in
// process memory; a restart simply drops any half-finished dialogue and the
// user starts over.
package dialog

import (
	"errors"
	"strings"
	"sync"

	"masterflow/user"
)

type Kind string

const (
	KindRegistration  Kind = "registration"
	KindReport        Kind = "report"
	KindRequestMaster Kind = "request_master"
	KindMessageClient Kind = "message_client"
	KindChangeStatus  Kind = "change_status"
	KindConfirmMaster Kind = "confirm_master"
)

// Field names under which collected values are stored.
const (
	FieldFullName = "full_name"
	FieldPhone    = "phone"
	FieldText     = "text"
	FieldAddress  = "address"
	FieldStatus   = "status"
	FieldDecision = "decision"
)

var (
	// ErrNoDialogue signals Submit without an open dialogue.
	ErrNoDialogue = errors.New("dialog: no dialogue in progress")
	// ErrUnknownKind signals Begin with an unregistered dialogue kind.
	ErrUnknownKind = errors.New("dialog: unknown dialogue kind")
	// ErrEmptyInput rejects blank free-text answers.
	ErrEmptyInput = errors.New("dialog: input must not be empty")
	// ErrBadStatusChoice rejects a status outside pending/in_progress/completed.
	ErrBadStatusChoice = errors.New("dialog: status must be pending, in_progress or completed")
	// ErrBadDecision rejects a confirm/reject answer that is not "<id> confirm|reject".
	ErrBadDecision = errors.New("dialog: decision must be '<id> confirm' or '<id> reject'")
)

// Step is one question of a flow: the field it fills, the prompt shown, and
// the admission predicate. Rejected input leaves the state unchanged.
type Step struct {
	Field    string
	Prompt   string
	Validate func(string) error
}

var flows = map[Kind][]Step{
	KindRegistration: {
		{Field: FieldFullName, Prompt: "👋 Добро пожаловать! Для регистрации укажите ваше ФИО:", Validate: user.ValidateFullName},
		{Field: FieldPhone, Prompt: "📱 Укажите ваш контактный телефон (например: +71234567890):", Validate: user.ValidatePhone},
	},
	KindReport: {
		{Field: FieldText, Prompt: "Напишите ваш отчёт о работе продукции:", Validate: nonEmpty},
	},
	KindRequestMaster: {
		{Field: FieldAddress, Prompt: "📌 Введите адрес, где требуется помощь мастера:", Validate: nonEmpty},
	},
	KindMessageClient: {
		{Field: FieldText, Prompt: "Введите сообщение для клиента:", Validate: nonEmpty},
	},
	KindChangeStatus: {
		{Field: FieldStatus, Prompt: "Выберите новый статус: pending, in_progress или completed", Validate: statusChoice},
	},
	KindConfirmMaster: {
		{Field: FieldDecision, Prompt: "Введите ID пользователя и решение (например: '12345 confirm' или '12345 reject'):", Validate: decision},
	},
}

func nonEmpty(v string) error {
	if v == "" {
		return ErrEmptyInput
	}
	return nil
}

func statusChoice(v string) error {
	switch v {
	case "pending", "in_progress", "completed":
		return nil
	}
	return ErrBadStatusChoice
}

func decision(v string) error {
	parts := strings.Fields(v)
	if len(parts) != 2 {
		return ErrBadDecision
	}
	if parts[1] != "confirm" && parts[1] != "reject" {
		return ErrBadDecision
	}
	return nil
}

// Outcome classifies what a Submit did.
type Outcome int

const (
	// Advanced: input admitted, the flow moved to its next step.
	Advanced Outcome = iota
	// Rejected: input failed the step predicate, same step re-prompted.
	Rejected
	// Completed: the final step was admitted; Fields holds everything collected.
	Completed
)

// Result reports the effect of one Submit.
type Result struct {
	Outcome Outcome
	Kind    Kind
	// Prompt is the next question (Advanced) or the repeated one (Rejected).
	Prompt string
	// Err holds the validation error when Outcome is Rejected.
	Err error
	// Fields holds the collected values when Outcome is Completed.
	Fields map[string]string
}

type state struct {
	kind   Kind
	step   int
	fields map[string]string
}

// Store keys dialogue state by user id. At most one dialogue per user; a
// later Begin overwrites whatever was in progress.
type Store struct {
	mu     sync.Mutex
	states map[string]*state
}

func NewStore() *Store {
	return &Store{states: make(map[string]*state)}
}

// Begin opens (or restarts) a dialogue and returns the first prompt.
func (s *Store) Begin(userID string, kind Kind) (string, error) {
	steps, ok := flows[kind]
	if !ok {
		return "", ErrUnknownKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = &state{kind: kind, fields: make(map[string]string)}
	return steps[0].Prompt, nil
}

// Active reports the kind of the user's open dialogue, if any.
func (s *Store) Active(userID string) (Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		return "", false
	}
	return st.kind, true
}

// Submit feeds one raw input into the user's open dialogue.
func (s *Store) Submit(userID, input string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	if !ok {
		return Result{}, ErrNoDialogue
	}

	steps := flows[st.kind]
	step := steps[st.step]
	input = strings.TrimSpace(input)

	if err := step.Validate(input); err != nil {
		return Result{Outcome: Rejected, Kind: st.kind, Prompt: step.Prompt, Err: err}, nil
	}

	st.fields[step.Field] = input
	st.step++

	if st.step < len(steps) {
		return Result{Outcome: Advanced, Kind: st.kind, Prompt: steps[st.step].Prompt}, nil
	}

	delete(s.states, userID)
	return Result{Outcome: Completed, Kind: st.kind, Fields: st.fields}, nil
}

// Cancel drops any open dialogue for the user. Usable from any step.
func (s *Store) Cancel(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
