package httpapi

import "time"

// Config holds data service client configuration.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}
