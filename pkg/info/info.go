// Package info carries build metadata, set with -ldflags, and the process instance id.
package info

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

var (
	Version    = "0.0.0"
	GitRev     = "000000"
	BuildTime  = "2000-01-01_00:00:00"
	InstanceID = uuid.New().String()
)

var EnvMode = "development"

func init() {
	mode := os.Getenv("TRADEMAN_MODE")
	if mode != "" {
		EnvMode = mode
	}
}

func IsProduction() bool {
	return EnvMode == "production"
}

// String is the version line printed at start-up.
func String() string {
	return fmt.Sprintf("trademan %s (%s, built %s) %s instance %s", Version, GitRev, BuildTime, EnvMode, InstanceID)
}
