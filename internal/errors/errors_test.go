package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "plain",
			err:      New(KindData, "NEGATIVE_PROXY_VALUE", "proxy values must not be negative"),
			expected: "proxy values must not be negative",
		},
		{
			name:     "with file",
			err:      New(KindParse, "MALFORMED_CSV", "malformed CSV input").In("proxy.csv"),
			expected: "malformed CSV input (in proxy.csv)",
		},
		{
			name:     "with file and line",
			err:      New(KindParse, "MALFORMED_CSV", "malformed CSV input").At("proxy.csv", 12),
			expected: "malformed CSV input (in proxy.csv, line 12)",
		},
		{
			name:     "wrapped",
			err:      Wrap(fmt.Errorf("boom"), KindConfig, "MISSING_FILE", "could not open file").In("base.csv"),
			expected: "could not open file (in base.csv): boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAtDoesNotMutateReceiver(t *testing.T) {
	located := ErrRowWidthMismatch.At("data.csv", 3)
	require.Equal(t, "data.csv", located.File)
	require.Equal(t, 3, located.Line)
	assert.Empty(t, ErrRowWidthMismatch.File)
	assert.Zero(t, ErrRowWidthMismatch.Line)
}

func TestIsMatchesByKindAndCode(t *testing.T) {
	err := ErrRowWidthMismatch.At("data.csv", 7)
	assert.True(t, Is(err, ErrRowWidthMismatch))
	assert.False(t, Is(err, ErrTooManyRows))
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", NegativeProxyValue(-1))
	assert.True(t, IsKind(err, KindData))
	assert.False(t, IsKind(err, KindParse))
	assert.False(t, IsKind(fmt.Errorf("plain"), KindData))
}

func TestConstructors(t *testing.T) {
	err := UnknownSector("AGRI")
	assert.Equal(t, KindConfig, err.Kind)
	assert.Contains(t, err.Error(), "AGRI")

	err = DuplicateIndex("A", "X")
	assert.Contains(t, err.Error(), `"A"`)
	assert.Contains(t, err.Error(), `"X"`)

	err = NegativeProxyValue(-2.5)
	assert.Equal(t, "NEGATIVE_PROXY_VALUE", err.Code)
	assert.Contains(t, err.Error(), "-2.5")
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(cause, KindParse, "MALFORMED_YAML", "could not parse")
	assert.ErrorIs(t, err, cause)
}
