package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewULIDValid(t *testing.T) {
	id, err := NewULID()
	require.NoError(t, err)
	require.Len(t, id, 26)
	require.NoError(t, ValidateULID(id))
}

func TestValidateULID(t *testing.T) {
	require.NoError(t, ValidateULID("01HX4W2Q8B3T6Y9ZJK5M7N8P2R"))

	require.ErrorIs(t, ValidateULID(""), ErrInvalidULID)
	require.ErrorIs(t, ValidateULID("too-short"), ErrInvalidULID)
	// I, L, O, U are not in the ULID alphabet.
	require.ErrorIs(t, ValidateULID("01HX4W2Q8B3T6Y9ZJK5M7N8PIO"), ErrInvalidULID)
}

func TestParseUUID(t *testing.T) {
	id, err := ParseUUID("8f5b7f2e-4f2c-4d9f-9f63-1a2b3c4d5e6f")
	require.NoError(t, err)
	require.Equal(t, "8f5b7f2e-4f2c-4d9f-9f63-1a2b3c4d5e6f", id.String())

	_, err = ParseUUID("not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidUUID)
}
