package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse("12.34.56")
	require.NoError(t, err)
	require.Equal(t, uint64(12), v.Major())
	require.Equal(t, uint64(34), v.Minor())
	require.Equal(t, uint64(56), v.Patch())
	require.Equal(t, "12.34.56", v.String())
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "1", "1.2", "v1.2.3", "1.2.3-beta", "1.2.3+build", "1.2.3.4", " 1.2.3", "a.b.c"} {
		_, err := Parse(input)
		require.Error(t, err, input)
		require.True(t, errors.Is(err, ErrParse), input)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		require.Equal(t, input, parseErr.Input)
	}
}

func TestLessThan(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected bool
	}{
		{"1.3.5", "1.3.5", false},
		{"1.3.4", "1.3.5", true},
		{"1.2.5", "1.3.5", true},
		{"0.3.5", "1.3.5", true},
		{"1.3.6", "1.3.5", false},
		{"1.4.5", "1.3.5", false},
		{"2.3.5", "1.3.5", false},
		{"0.10.0", "0.9.0", false},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, MustParse(tc.a).LessThan(MustParse(tc.b)), "%s < %s", tc.a, tc.b)
	}
}

func TestEqual(t *testing.T) {
	require.True(t, MustParse("1.3.5").Equal(MustParse("1.3.5")))
	require.False(t, MustParse("1.3.6").Equal(MustParse("1.3.5")))
	require.False(t, MustParse("1.2.5").Equal(MustParse("1.3.5")))
	require.False(t, MustParse("0.3.5").Equal(MustParse("1.3.5")))
}

func TestLessThanEqual(t *testing.T) {
	require.True(t, MustParse("1.3.4").LessThanEqual(MustParse("1.3.5")))
	require.True(t, MustParse("1.3.5").LessThanEqual(MustParse("1.3.5")))
	require.False(t, MustParse("1.3.6").LessThanEqual(MustParse("1.3.5")))
}
