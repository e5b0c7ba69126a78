package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// PackageStub is one search result entry, before its detail record is fetched.
type PackageStub struct {
	Name      string
	Title     string
	Publisher string
	DetailURL string
}

// Details is the normalized detail record of a single package.
type Details struct {
	Version               string
	Description           string
	Changelog             string // empty when the store has none
	LastUpdated           time.Time
	IconURL               string
	Price                 float64
	Architecture          []string
	Framework             []string
	Keywords              []string
	WhitelistCountryCodes []string
}

type link struct {
	Href string `json:"href"`
}

type searchResponse struct {
	Embedded struct {
		Packages []searchPackage `json:"clickindex:package"`
	} `json:"_embedded"`
	Links struct {
		Next *link `json:"next"`
	} `json:"_links"`
}

type searchPackage struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Links     struct {
		Self link `json:"self"`
	} `json:"_links"`
}

type detailResponse struct {
	Version               string     `json:"version"`
	Description           string     `json:"description"`
	Changelog             *string    `json:"changelog"`
	LastUpdated           string     `json:"last_updated"`
	IconURL               string     `json:"icon_url"`
	Price                 Decimal    `json:"price"`
	Architecture          StringList `json:"architecture"`
	Framework             StringList `json:"framework"`
	Keywords              StringList `json:"keywords"`
	WhitelistCountryCodes StringList `json:"whitelist_country_codes"`
}

// StringList decodes a JSON array of strings, a single string or null.
// Blank entries are dropped.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var values []string

	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return fmt.Errorf("failed to decode string list: %w", err)
		}
		values = []string{value}
	default:
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to decode string list: %w", err)
		}
	}

	*l = lo.Compact(lo.Map(values, func(v string, _ int) string {
		return strings.TrimSpace(v)
	}))
	return nil
}

// Decimal decodes a JSON number, a numeric string or null (as zero).
type Decimal float64

func (d *Decimal) UnmarshalJSON(data []byte) error {
	value := strings.TrimSpace(strings.Trim(string(data), `"`))
	if value == "" || value == "null" {
		*d = 0
		return nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", data, err)
	}

	*d = Decimal(parsed)
	return nil
}
