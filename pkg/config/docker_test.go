package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveHost(t *testing.T) {
	tests := []struct {
		host     string
		inDocker bool
		expected string
	}{
		{"bim-db.example.com", true, "bim-db.example.com"},
		{"192.168.1.100", true, "192.168.1.100"},
		{"localhost", true, "host.docker.internal"},
		{"127.0.0.1", true, "host.docker.internal"},
		{"::1", true, "host.docker.internal"},
		{"localhost", false, "localhost"},
		{"127.0.0.1", false, "127.0.0.1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, resolveHost(tt.host, tt.inDocker), "host=%s docker=%v", tt.host, tt.inDocker)
	}
}

func TestResolveHostForDocker_RemoteHostUnchanged(t *testing.T) {
	// Remote hosts are never rewritten, whatever the environment.
	assert.Equal(t, "bim-db.example.com", ResolveHostForDocker("bim-db.example.com"))
}
