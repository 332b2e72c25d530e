package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("class not found")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("nope")))
	assert.Equal(t, KindConflict, KindOf(Conflict("exists")))
	assert.Equal(t, KindInvalid, KindOf(Invalid("bad date %q", "x")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading roster: %w", NotFound("student not found"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindConflict, cause, "enroll failed")
	assert.True(t, IsConflict(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "uq_sessions_class_date" (SQLSTATE 23505)`)))
	assert.True(t, IsUniqueViolation(errors.New("SQLSTATE 23505")))
	assert.False(t, IsUniqueViolation(errors.New("ERROR: null value in column (SQLSTATE 23502)")))
	assert.False(t, IsUniqueViolation(nil))
}
