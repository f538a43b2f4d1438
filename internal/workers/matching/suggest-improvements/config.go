// internal/workers/matching/suggest-improvements/config.go
package suggestimprovements

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
