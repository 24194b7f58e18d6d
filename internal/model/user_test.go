package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"", RoleUser, true},
		{"user", RoleUser, true},
		{"publisher", RolePublisher, true},
		{"admin", "", false},
		{"Publisher", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
