package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterflow/user"
)

func TestRegistrationFlow(t *testing.T) {
	s := NewStore()

	prompt, err := s.Begin("u1", KindRegistration)
	require.NoError(t, err)
	assert.Contains(t, prompt, "ФИО")

	// bad name keeps the step
	res, err := s.Submit("u1", "ab")
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Outcome)
	assert.ErrorIs(t, res.Err, user.ErrInvalidFullName)

	res, err = s.Submit("u1", "Иван Петров")
	require.NoError(t, err)
	assert.Equal(t, Advanced, res.Outcome)
	assert.Contains(t, res.Prompt, "телефон")

	// bad phone keeps the step
	res, err = s.Submit("u1", "+123")
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Outcome)
	assert.ErrorIs(t, res.Err, user.ErrInvalidPhone)

	res, err = s.Submit("u1", "+71234567890")
	require.NoError(t, err)
	assert.Equal(t, Completed, res.Outcome)
	assert.Equal(t, "Иван Петров", res.Fields[FieldFullName])
	assert.Equal(t, "+71234567890", res.Fields[FieldPhone])

	// completion clears the state
	_, ok := s.Active("u1")
	assert.False(t, ok)
}

func TestLaterBeginWins(t *testing.T) {
	s := NewStore()

	_, err := s.Begin("u1", KindReport)
	require.NoError(t, err)
	_, err = s.Begin("u1", KindRequestMaster)
	require.NoError(t, err)

	kind, ok := s.Active("u1")
	require.True(t, ok)
	assert.Equal(t, KindRequestMaster, kind)

	res, err := s.Submit("u1", "ул. Ленина, 5")
	require.NoError(t, err)
	assert.Equal(t, Completed, res.Outcome)
	assert.Equal(t, "ул. Ленина, 5", res.Fields[FieldAddress])
}

func TestCancelClearsAnyStep(t *testing.T) {
	s := NewStore()

	_, err := s.Begin("u1", KindRegistration)
	require.NoError(t, err)
	res, err := s.Submit("u1", "Иван Петров")
	require.NoError(t, err)
	require.Equal(t, Advanced, res.Outcome)

	s.Cancel("u1")
	_, ok := s.Active("u1")
	assert.False(t, ok)

	_, err = s.Submit("u1", "+71234567890")
	assert.ErrorIs(t, err, ErrNoDialogue)
}

func TestStatusChoiceValidation(t *testing.T) {
	s := NewStore()

	_, err := s.Begin("m1", KindChangeStatus)
	require.NoError(t, err)

	res, err := s.Submit("m1", "done")
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrBadStatusChoice)

	res, err = s.Submit("m1", "in_progress")
	require.NoError(t, err)
	require.Equal(t, Completed, res.Outcome)
	assert.Equal(t, "in_progress", res.Fields[FieldStatus])
}

func TestDecisionValidation(t *testing.T) {
	s := NewStore()

	_, err := s.Begin("a1", KindConfirmMaster)
	require.NoError(t, err)

	for _, bad := range []string{"", "12345", "12345 approve", "12345 confirm now"} {
		res, err := s.Submit("a1", bad)
		require.NoError(t, err)
		assert.Equalf(t, Rejected, res.Outcome, "input %q", bad)
	}

	res, err := s.Submit("a1", "12345 reject")
	require.NoError(t, err)
	require.Equal(t, Completed, res.Outcome)
	assert.Equal(t, "12345 reject", res.Fields[FieldDecision])
}

func TestUnknownKind(t *testing.T) {
	s := NewStore()
	_, err := s.Begin("u1", Kind("quiz"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}
