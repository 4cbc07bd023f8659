package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Address
		wantErr bool
	}{
		{
			name:  "lowercase",
			input: "0x00000000000000000000000000000000000000a1",
			want:  "0x00000000000000000000000000000000000000a1",
		},
		{
			name:  "mixed case is normalised",
			input: "0xABCDEF0000000000000000000000000000000001",
			want:  "0xabcdef0000000000000000000000000000000001",
		},
		{name: "missing prefix", input: "00000000000000000000000000000000000000a1", wantErr: true},
		{name: "too short", input: "0x01", wantErr: true},
		{name: "not hex", input: "0xzz000000000000000000000000000000000000a1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got.Bytes(), AddressLength)
		})
	}
}

func TestDerivePoolAddress(t *testing.T) {
	t.Parallel()

	admin := MustParseAddress("0x00000000000000000000000000000000000000ad")

	a1 := DerivePoolAddress(admin, []byte("salt-1"))
	a2 := DerivePoolAddress(admin, []byte("salt-1"))
	a3 := DerivePoolAddress(admin, []byte("salt-2"))

	assert.Equal(t, a1, a2, "derivation is deterministic")
	assert.NotEqual(t, a1, a3, "different salts give different pools")

	parsed, err := ParseAddress(string(a1))
	require.NoError(t, err)
	assert.Equal(t, a1, parsed)
}
