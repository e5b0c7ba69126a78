package feed

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Validator struct {
	gofeedParser *gofeed.Parser
}

func NewValidator() *Validator {
	return &Validator{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses a rendered document back and checks it is an RSS feed with
// the expected number of items.
func (v *Validator) Run(document string, expectedItems int) error {
	parsed, err := v.gofeedParser.Parse(strings.NewReader(document))
	if err != nil {
		return fmt.Errorf("failed to parse rendered feed: %w", err)
	}

	if parsed.FeedType != "rss" {
		return fmt.Errorf("rendered feed has type %q, expected rss", parsed.FeedType)
	}

	if len(parsed.Items) != expectedItems {
		return fmt.Errorf("rendered feed has %d items, expected %d", len(parsed.Items), expectedItems)
	}

	for i, item := range parsed.Items {
		if item.GUID == "" {
			return fmt.Errorf("rendered item %d has no guid", i)
		}
	}

	return nil
}
