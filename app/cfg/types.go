package cfg

import "time"

type Cfg struct {
	// Output
	OutputPath string
	ConfigPath string

	// Store API
	SearchURL string
	MaxPages  int
	Timeout   time.Duration

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
