package instance

import (
	"os"

	"github.com/angelmondragon/teeforge-backend/pkg/env"
)

// GetID identifies this process for lock ownership. Cloud Run sets
// K_REVISION; local runs fall back to the hostname.
func GetID() string {
	if id := env.First("", "TEEFORGE_INSTANCE_ID", "K_REVISION"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "teeforge-0"
}
