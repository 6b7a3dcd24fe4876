package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldErrors_Empty(t *testing.T) {
	errs := &FieldErrors{}
	assert.NoError(t, errs.Err())

	var nilErrs *FieldErrors
	assert.NoError(t, nilErrs.Err())
}

func TestFieldErrors_FirstMessageWins(t *testing.T) {
	errs := &FieldErrors{}
	errs.Add("title", "first")
	errs.Add("title", "second")

	assert.True(t, errs.Has("title"))
	assert.False(t, errs.Has("description"))
	assert.Equal(t, "first", errs.Fields["title"])
}

func TestFieldErrors_Error(t *testing.T) {
	errs := NewFieldError("username", "taken")
	errs.Add("email", "bad")

	err := errs.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed: email: bad; username: taken", err.Error())

	var target *FieldErrors
	assert.True(t, errors.As(err, &target))
}

func TestFieldErrors_Checks(t *testing.T) {
	tests := []struct {
		name  string
		check func(*FieldErrors)
		want  string
	}{
		{"required ok", func(e *FieldErrors) { e.RequireString("f", "x", 5) }, ""},
		{"required missing", func(e *FieldErrors) { e.RequireString("f", "", 5) }, MsgRequired},
		{"required too long", func(e *FieldErrors) { e.RequireString("f", "abcdef", 5) }, MaxLengthMessage(5)},
		{"multibyte counts runes", func(e *FieldErrors) { e.RequireString("f", "ééééé", 5) }, ""},
		{"no max", func(e *FieldErrors) { e.RequireString("f", strings.Repeat("a", 1000), 0) }, ""},
		{"blank", func(e *FieldErrors) { e.NonBlankString("f", "", 5) }, MsgBlank},
		{"optional empty", func(e *FieldErrors) { e.OptionalString("f", "", 5) }, ""},
		{"optional too long", func(e *FieldErrors) { e.OptionalString("f", "abcdef", 5) }, MaxLengthMessage(5)},
		{"min ok", func(e *FieldErrors) { e.MinInt("f", 0, 0) }, ""},
		{"min fail", func(e *FieldErrors) { e.MinInt("f", 0, 1) }, MinValueMessage(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := &FieldErrors{}
			tt.check(errs)
			assert.Equal(t, tt.want, errs.Fields["f"])
		})
	}
}
