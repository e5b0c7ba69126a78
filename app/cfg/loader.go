package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

const DefaultSearchURL = "https://search.apps.ubuntu.com/api/v1/search?q=architecture:armhf&size=100000&page=1"

// ErrUsage is returned when the positional arguments are wrong.
var ErrUsage = errors.New("usage error")

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	ConfigPath string `short:"c" long:"config" env:"STORE_DIFF_CONFIG" description:"Path to the YAML feed configuration file (optional)"`

	// Store API
	SearchURL string `long:"search-url" env:"SEARCH_URL" description:"Store search endpoint (default: Ubuntu store armhf search)"`
	MaxPages  int    `long:"max-pages" env:"MAX_PAGES" default:"50" description:"Maximum number of search result pages to follow"`
	Timeout   int    `long:"timeout" env:"HTTP_TIMEOUT" default:"30" description:"Per-request timeout in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Store Diff/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Args struct {
		Output string `positional-arg-name:"output-file" description:"RSS file to write"`
	} `positional-args:"yes"`
}

// Load parses args (without the program name). Help output and usage
// text are written to w. It returns nil, nil when help was requested.
func Load(args []string, w io.Writer) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "store-diff"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(w, flagsErr.Message)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.Args.Output == "" || len(rest) > 0 {
		parser.WriteHelp(w)
		return nil, ErrUsage
	}

	if raw.MaxPages <= 0 {
		return nil, fmt.Errorf("max pages must be positive, got %d", raw.MaxPages)
	}
	if raw.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %d", raw.Timeout)
	}

	cfg := &Cfg{
		OutputPath: raw.Args.Output,
		ConfigPath: raw.ConfigPath,
		SearchURL:  cmp.Or(raw.SearchURL, DefaultSearchURL),
		MaxPages:   raw.MaxPages,
		Timeout:    time.Duration(raw.Timeout) * time.Second,
		UserAgent:  raw.UserAgent,
		Debug:      raw.Debug,
		Version:    GetVersion(),
	}

	return cfg, nil
}
