package store

import (
	"errors"
	"fmt"
	"time"
)

var ErrTimestamp = errors.New("unparseable timestamp")

// Tried in order. The whole-seconds layout also accepts any fraction length.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02T15:04:05Z",
}

func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrTimestamp, value)
}
