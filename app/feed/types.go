package feed

import (
	"time"
)

// AppRecord is one store package merged with its detail record.
type AppRecord struct {
	Title                 string
	Version               string
	Publisher             string
	LastUpdated           time.Time
	Description           string
	Changelog             string // empty when absent
	IconURL               string
	Price                 float64
	Architecture          []string
	Framework             []string
	Keywords              []string
	WhitelistCountryCodes []string
}

// Configuration types

type Config struct {
	Channel  Channel        `yaml:"channel"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type Channel struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Copyright   string `yaml:"copyright"`
}

type ConfigSettings struct {
	MaxItems int `yaml:"max_items"` // 0 keeps every record
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
