package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Valid(t *testing.T) {
	u, err := New("John Doe", "john.doe@example.com")

	require.NoError(t, err)
	assert.Equal(t, int64(0), u.ID)
	assert.Equal(t, "John Doe", u.Name)
	assert.Equal(t, "john.doe@example.com", u.Email)
}

func TestNew_NameLength(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrInvalidName},
		{name: "one character", input: "a"},
		{name: "exactly 100", input: strings.Repeat("a", 100)},
		{name: "101 characters", input: strings.Repeat("a", 101), wantErr: ErrInvalidName},
		{name: "100 multibyte characters", input: strings.Repeat("名", 100)},
		{name: "101 multibyte characters", input: strings.Repeat("名", 101), wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := New(tt.input, "a@b.c")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, u.Name)
		})
	}
}

func TestNew_NameLength_AllValidLengths(t *testing.T) {
	for n := 1; n <= MaxNameLength; n++ {
		_, err := New(strings.Repeat("x", n), "a@b")
		require.NoError(t, err, "length %d", n)
	}
}

func TestNew_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "minimal", email: "a@b"},
		{name: "at only padded", email: "@@@"},
		{name: "regular address", email: "a@b.c"},
		{name: "missing at", email: "invalid-email", wantErr: true},
		{name: "single char", email: "x", wantErr: true},
		{name: "too short with at", email: "a@", wantErr: true},
		{name: "empty", email: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := New("Ann", tt.email)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEmail)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, u.Email)
		})
	}
}

func TestNew_NameCheckedBeforeEmail(t *testing.T) {
	_, err := New("", "x")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestWithID_DoesNotMutateReceiver(t *testing.T) {
	u, err := New("Ann", "a@b.c")
	require.NoError(t, err)

	saved := u.WithID(42)

	assert.Equal(t, int64(42), saved.ID)
	assert.Equal(t, int64(0), u.ID)
	assert.Equal(t, u.Name, saved.Name)
	assert.Equal(t, u.Email, saved.Email)
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ErrInvalidName))
	assert.True(t, IsValidationError(ErrInvalidEmail))
	assert.False(t, IsValidationError(assert.AnError))

	assert.ElementsMatch(t, []error{ErrInvalidName, ErrInvalidEmail}, ValidationErrors())
}
