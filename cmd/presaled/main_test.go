package main

import "testing"

func TestResolveEnvironment(t *testing.T) {
	cases := []struct {
		name   string
		envVar string
		cfgEnv string
		want   string
	}{
		{"process environment wins", "production", "staging", "production"},
		{"config file fallback", "", " staging ", "staging"},
		{"both empty", "", "", ""},
	}
	for _, tc := range cases {
		if got := resolveEnvironment(tc.envVar, tc.cfgEnv); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, got, tc.want)
		}
	}
}
