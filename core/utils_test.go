package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Sakura Juku", CleanString("  Sakura Juku\t"))
	assert.Equal(t, "MiXeD", CleanString(" MiXeD "), "case must be preserved")
	assert.Equal(t, "akitanaka", CleanLower("  AkiTanaka\n"))
}

func TestShutdownErrors(t *testing.T) {
	err := NewShutdownError("stored policy is corrupt")
	assert.Equal(t, "stored policy is corrupt", err.Error())
	assert.True(t, IsShutdown(err))
	assert.True(t, IsShutdown(errors.Wrap(err, "load school")), "wrapping must not hide it")
	assert.False(t, IsShutdown(errors.New("boom")))
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError(errors.New("number taken"), FieldError{Field: "number", Error: "number taken"})
	assert.Equal(t, "number taken", err.Error())
	assert.Empty(t, NewValidationError(nil, FieldError{Field: "name", Error: "required"}).Error())
}
