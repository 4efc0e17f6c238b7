package config

import (
	"os"
	"sync"
)

// dockerMarker is the file present in every Docker container.
var dockerMarker = "/.dockerenv"

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether the process runs inside a Docker container.
// The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat(dockerMarker)
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker rewrites a loopback database host to host.docker.internal
// when running in Docker, so a containerised run can reach the BIM database
// published on the host machine. Other hosts are returned unchanged.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

func resolveHost(host string, inDocker bool) string {
	if !inDocker {
		return host
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return "host.docker.internal"
	}
	return host
}
