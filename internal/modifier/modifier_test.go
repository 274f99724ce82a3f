package modifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_CanonicalOrder(t *testing.T) {
	t.Parallel()

	// final|private|static in bit order would be private, static, final.
	got := Decode(0x0010 | 0x0002 | 0x0008)
	assert.Equal(t, Set{Private, Static, Final}, got)
	assert.Equal(t, []string{"private", "static", "final"}, got.Names())
}

func TestDecode_IgnoresUnknownBits(t *testing.T) {
	t.Parallel()

	got := Decode(0x1000 | 0x0001)
	assert.Equal(t, Set{Public}, got)
	assert.Equal(t, int64(0x0001), Encode(got))
}

func TestDecode_Zero(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Decode(0))
}

func TestDecode_Repeatable(t *testing.T) {
	t.Parallel()

	mask := Encode(NewSet(Protected, Abstract, Volatile))
	first := Decode(mask)
	for range 10 {
		assert.Equal(t, first, Decode(mask))
	}
}

func TestRoundTrip_AllSubsets(t *testing.T) {
	t.Parallel()

	all := All()
	require.Len(t, all, 12)

	for bits := 0; bits < 1<<len(all); bits++ {
		var mods []Modifier
		for i, m := range all {
			if bits&(1<<i) != 0 {
				mods = append(mods, m)
			}
		}
		s := NewSet(mods...)
		require.Equal(t, s, Decode(Encode(s)), "subset %b", bits)
	}
}

func TestBitsAreDistinct(t *testing.T) {
	t.Parallel()

	seen := map[int64]Modifier{}
	for _, m := range All() {
		bit := m.Bit()
		require.NotZero(t, bit, m.String())
		_, dup := seen[bit]
		require.False(t, dup, "bit %#x reused by %s", bit, m)
		seen[bit] = m
	}
}

func TestNewSet_DedupsAndOrders(t *testing.T) {
	t.Parallel()

	s := NewSet(Final, Public, Final, Modifier(99), Static)
	assert.Equal(t, Set{Public, Static, Final}, s)
	assert.Equal(t, "public static final", s.String())
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Modifier
		ok   bool
	}{
		{"public", Public, true},
		{"PRIVATE", Private, true},
		{" Protected ", Protected, true},
		{"packageLocal", Package, true},
		{"package", Package, true},
		{"strictfp", Strictfp, true},
		{"default", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSet_Visibility(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Protected, ParseSet("static", "protected").Visibility())
	assert.Equal(t, Modifier(0), ParseSet("static", "final").Visibility())
	assert.True(t, ParseSet("final").With(Static).Has(Static))
}
