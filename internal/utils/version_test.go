package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidVersion(t *testing.T) {
	cases := []struct {
		tag  string
		want bool
	}{
		{tag: "v14.0.0", want: true},
		{tag: "v14.0.0-rc1", want: true},
		{tag: "v14.0.0-rc1-rc2", want: true},
		{tag: "v14.0.", want: false},
		{tag: "v.0.1", want: false},
		{tag: "14.0.0", want: false},
		{tag: "v14.0.0-beta", want: false},
		{tag: "v14.0.0+build", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.tag, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidVersion(tc.tag))
		})
	}
}

func TestIsValidTargetVersion(t *testing.T) {
	cases := []struct {
		name string
		tag  string
		rule RCRule
		want bool
	}{
		{name: "local release", tag: "v14.0.0", rule: RCOptional, want: true},
		{name: "local incomplete", tag: "v14.0", rule: RCOptional, want: false},
		{name: "testnet candidate", tag: "v14.0.0-rc1", rule: RCRequired, want: true},
		{name: "testnet release", tag: "v14.0.0", rule: RCRequired, want: false},
		{name: "mainnet release", tag: "v14.0.0", rule: RCForbidden, want: true},
		{name: "mainnet candidate", tag: "v14.0.0-rc1", rule: RCForbidden, want: false},
		{name: "two digit minor", tag: "v14.10.0", rule: RCOptional, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidTargetVersion(tc.tag, tc.rule))
		})
	}
}
