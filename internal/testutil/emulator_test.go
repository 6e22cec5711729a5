package testutil

import "testing"

func TestRedisHost(t *testing.T) {
	tests := map[string]string{
		"redis://127.0.0.1:6379/15":  "127.0.0.1:6379",
		"redis://cache:6380":         "cache:6380",
		"rediss://:secret@db:6390/0": "db:6390",
	}
	for in, want := range tests {
		if got := redisHost(in); got != want {
			t.Errorf("redisHost(%q) = %q, want %q", in, got, want)
		}
	}
}
