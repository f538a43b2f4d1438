// internal/workers/catalog/flag-invalid-scheme/config.go
package flaginvalidscheme

import "time"

type Config struct {
	AWSRegion string
	TopicARN  string
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
