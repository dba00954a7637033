package stringsx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClip_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"equal", "hello", 5, "hello"},
		{"clip", "hello", 3, "hel"},
		{"zero", "hello", 0, ""},
		{"neg", "hello", -1, ""},
		{"empty", "", 3, ""},
		{"runes", "привет", 3, "при"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clip(tt.in, tt.max))
		})
	}
}

func TestNormalize_And_IsEmpty(t *testing.T) {
	require.Equal(t, "hello", Normalize("  HeLLo  "))
	require.True(t, IsEmpty("   \n\t  "))
	require.False(t, IsEmpty(" x "))
}

func TestContainsFold(t *testing.T) {
	require.True(t, ContainsFold("Welcome to DevStream", "devstream"))
	require.True(t, ContainsFold("ABC", ""))
	require.False(t, ContainsFold("Welcome", "stream"))
}

func TestCompareFold(t *testing.T) {
	require.Equal(t, 0, CompareFold("Apple", "apple"))
	require.Equal(t, -1, CompareFold("apple", "Banana"))
	require.Equal(t, 1, CompareFold("b", "A"))
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"http://a", "https://*.b.dev"}, SplitList(" http://a , ,https://*.b.dev,"))
	require.Nil(t, SplitList("  "))
}
