package stream

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataVersionString(t *testing.T) {
	assert.Equal(t, "1.0", DataVersion{Major: 1, Minor: 0}.String())
	assert.Equal(t, "0.0", DataVersion{}.String())
	assert.Equal(t, "12.34", DataVersion{Major: 12, Minor: 34}.String())
}

func TestParseDataVersion(t *testing.T) {
	v, err := ParseDataVersion("1.1")
	require.NoError(t, err)
	assert.Equal(t, DataVersion{Major: 1, Minor: 1}, v)

	for _, bad := range []string{"", "1", "1.", ".1", "1.2.3", "v1.0", "1.0-rc1", "a.b", "1.0 "} {
		_, err := ParseDataVersion(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

// Round-trip law: ParseDataVersion(v.String()) == v for all valid pairs.
func TestDataVersionRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("parse inverts format", prop.ForAll(
		func(major, minor int) bool {
			v := DataVersion{Major: major, Minor: minor}
			parsed, err := ParseDataVersion(v.String())
			return err == nil && parsed == v
		},
		gen.IntRange(0, 1<<30),
		gen.IntRange(0, 1<<30),
	))

	properties.TestingRun(t)
}

func TestDataVersionCompare(t *testing.T) {
	cases := []struct {
		a, b DataVersion
		want int
	}{
		{DataVersion{1, 0}, DataVersion{1, 0}, 0},
		{DataVersion{0, 9}, DataVersion{1, 0}, -1},
		{DataVersion{1, 1}, DataVersion{1, 0}, 1},
		{DataVersion{2, 0}, DataVersion{1, 9}, 1},
		{DataVersion{0, 0}, DataVersion{0, 1}, -1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.a.Compare(c.b), "%s vs %s", c.a, c.b)
	}
}
