package instance

import (
	"os"

	"github.com/angelmondragon/warung-pos/pkg/env"
)

// GetID names the running process for logs: WARUNG_INSTANCE_ID, then the
// platform dyno name, then the hostname.
func GetID() string {
	if id := env.FirstOf("", "WARUNG_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
