package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("orchestration failed: %w", NewNotReady("2 of 3 transcripts completed"))

	assert.Equal(t, ErrNotReady, Code(err))
	assert.True(t, IsNotReady(err))
	assert.False(t, IsPermanent(err))
}

func TestPermanentClassification(t *testing.T) {
	assert.True(t, IsPermanent(NewNotFound("appointment", nil)))
	assert.True(t, IsPermanent(NewInvalidState("appointment has no assigned templates")))
	assert.True(t, IsPermanent(NewBadRequest("empty upload", nil)))
	assert.False(t, IsPermanent(NewNotReady("waiting")))
	assert.False(t, IsPermanent(NewInternal(fmt.Errorf("db down"))))
	assert.False(t, IsPermanent(fmt.Errorf("plain error")))
}

func TestCodeOfPlainErrorIsZero(t *testing.T) {
	assert.Equal(t, ErrorCode(0), Code(fmt.Errorf("plain")))
}
