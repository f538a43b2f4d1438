// internal/workers/matching/find-matches/config.go
package findmatches

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// Above the engine's hard deadline so the job never times out while
		// the orchestrator is still within contract.
		Timeout: 15 * time.Second,
	}
}
