package geoindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"  Rohtak ", "rohtak"},
		{"GAUTAM BUDDHA NAGAR", "gautam buddha nagar"},
		{"gautam  buddha   nagar", "gautam buddha nagar"},
		{"GautamBuddhaNagar", "gautam buddha nagar"},
		{"Gurgaon", "gurugram"},
		{"Gurgáon", "gurugram"},
		{"MEWAT", "nuh"},
		{"Nuh", "nuh"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeName(tc.in), "input %q", tc.in)
	}
}
