package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

var testBuildTime = time.Date(2016, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	generator := NewGenerator(Channel{
		Title:       "Test Store Feed",
		Link:        "https://store.example.com/",
		Description: "Test Description",
		Language:    "en-us",
		Copyright:   "Copyright Example",
	})
	generator.now = func() time.Time { return testBuildTime }
	return generator
}

func sampleRecord() AppRecord {
	return AppRecord{
		Title:                 "Test App",
		Version:               "1.2.3",
		Publisher:             "Test Publisher",
		LastUpdated:           time.Date(2016, 3, 1, 10, 20, 30, 123456000, time.UTC),
		Description:           "First line\nSecond line",
		Changelog:             "Fixed a crash",
		IconURL:               "https://example.com/icon.png",
		Price:                 1.5,
		Architecture:          []string{"armhf", "amd64"},
		Framework:             []string{"ubuntu-sdk-15.04"},
		Keywords:              []string{"game", "puzzle"},
		WhitelistCountryCodes: []string{"US", "DE"},
	}
}

func TestGenerateRSS(t *testing.T) {
	generator := newTestGenerator()

	rss, err := generator.Run([]AppRecord{sampleRecord()})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.HasPrefix(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("RSS should start with XML declaration")
	}

	if !strings.Contains(rss, `<rss version="0.91">`) {
		t.Error("RSS should contain RSS 0.91 declaration")
	}

	channelElements := []string{
		"<title>Test Store Feed</title>",
		"<link>https://store.example.com/</link>",
		"<description>Test Description</description>",
		"<language>en-us</language>",
		"<copyright>Copyright Example</copyright>",
		"<pubDate>Tue, 01 Mar 2016 10:20:30 GMT</pubDate>",
		"<lastBuildDate>Wed, 02 Mar 2016 08:00:00 GMT</lastBuildDate>",
	}
	for _, element := range channelElements {
		if !strings.Contains(rss, element) {
			t.Errorf("RSS should contain channel element %s", element)
		}
	}

	if !strings.Contains(rss, "<title>Test App 1.2.3</title>") {
		t.Error("RSS should contain item title with version")
	}

	if !strings.Contains(rss, "<guid>"+GUID("Test App", "1.2.3")+"</guid>") {
		t.Error("RSS should contain item GUID")
	}

	descriptionParts := []string{
		"<description><![CDATA[",
		`<img src="https://example.com/icon.png" alt="Test App" />`,
		"<b>Publisher:</b> Test Publisher<br/>",
		"<b>Price:</b> 1.5<br/>",
		"First line<br/>Second line",
		"<b>Architecture:</b> armhf, amd64<br/>",
		"<b>Framework:</b> ubuntu-sdk-15.04<br/>",
		"<b>Keywords:</b> game, puzzle<br/>",
		"<b>Whitelisted countries:</b> US, DE<br/>",
		"<b>Changelog:</b><br/>Fixed a crash]]></description>",
	}
	for _, part := range descriptionParts {
		if !strings.Contains(rss, part) {
			t.Errorf("RSS description should contain %s", part)
		}
	}

	if !strings.HasSuffix(rss, "</channel>\n</rss>\n") {
		t.Error("RSS should end with closing channel and rss tags")
	}
}

func TestGenerateRSS_TitleEscaping(t *testing.T) {
	generator := newTestGenerator()

	record := sampleRecord()
	record.Title = "A & B"
	record.Version = "1.0"

	rss, err := generator.Run([]AppRecord{record})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, "<title>A &amp; B 1.0</title>") {
		t.Error("RSS should escape ampersand in item title")
	}
	if strings.Contains(rss, "&amp;amp;") {
		t.Error("RSS should not double-escape the title")
	}
	if !strings.Contains(rss, `alt="A &amp; B"`) {
		t.Error("RSS should escape title inside the description HTML")
	}
}

func TestGenerateRSS_MissingChangelog(t *testing.T) {
	generator := newTestGenerator()

	for _, changelog := range []string{"", "   "} {
		record := sampleRecord()
		record.Changelog = changelog

		rss, err := generator.Run([]AppRecord{record})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if !strings.Contains(rss, "<b>Changelog:</b><br/> ]]></description>") {
			t.Errorf("Missing changelog %q should render as a single space", changelog)
		}
		if strings.Contains(rss, "None") {
			t.Error("Missing changelog should not render as 'None'")
		}
	}
}

func TestGenerateRSS_PriceFormatting(t *testing.T) {
	tests := []struct {
		price    float64
		expected string
	}{
		{0, "<b>Price:</b> 0.0<br/>"},
		{0.99, "<b>Price:</b> 1.0<br/>"},
		{2.26, "<b>Price:</b> 2.3<br/>"},
		{10, "<b>Price:</b> 10.0<br/>"},
	}

	generator := newTestGenerator()
	for _, tt := range tests {
		record := sampleRecord()
		record.Price = tt.price

		rss, err := generator.Run([]AppRecord{record})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if !strings.Contains(rss, tt.expected) {
			t.Errorf("Expected %s for price %v", tt.expected, tt.price)
		}
	}
}

func TestGenerateRSS_CDATAAndHTMLEscaping(t *testing.T) {
	generator := newTestGenerator()

	record := sampleRecord()
	record.Description = "Use <b>bold</b> ]]> wisely"

	rss, err := generator.Run([]AppRecord{record})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, "Use &lt;b&gt;bold&lt;/b&gt; ]]&gt; wisely") {
		t.Error("Description text should be HTML-escaped")
	}
	if strings.Count(rss, "<![CDATA[") != 1 {
		t.Error("Escaped description should not need extra CDATA sections")
	}

	if got := escapeCDATA("a]]>b"); got != "a]]]]><![CDATA[>b" {
		t.Errorf("Expected CDATA terminator to be split, got: %s", got)
	}

	if err := NewValidator().Run(rss, 1); err != nil {
		t.Errorf("Expected rendered feed to validate, got: %v", err)
	}
}

func TestGenerateRSS_EmptyRecords(t *testing.T) {
	generator := newTestGenerator()

	rss, err := generator.Run(nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.Contains(rss, "<item>") {
		t.Error("Empty feed should not contain items")
	}
	if !strings.Contains(rss, "<pubDate>Wed, 02 Mar 2016 08:00:00 GMT</pubDate>") {
		t.Error("Empty feed pubDate should fall back to build time")
	}
}

func TestGenerateRSS_EmptyLists(t *testing.T) {
	generator := newTestGenerator()

	record := sampleRecord()
	record.Architecture = nil
	record.Keywords = []string{}

	rss, err := generator.Run([]AppRecord{record})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, "<b>Architecture:</b> <br/>") {
		t.Error("Empty architecture list should render blank")
	}
	if !strings.Contains(rss, "<b>Keywords:</b> <br/>") {
		t.Error("Empty keyword list should render blank")
	}
}

func TestGenerateRSS_MissingTitle(t *testing.T) {
	generator := newTestGenerator()

	record := sampleRecord()
	record.Title = ""

	if _, err := generator.Run([]AppRecord{record}); err == nil {
		t.Error("Expected error for record without title")
	}
}

func TestGUID(t *testing.T) {
	first := GUID("Test App", "1.2.3")
	second := GUID("Test App", "1.2.3")

	if first != second {
		t.Errorf("Expected identical GUIDs, got %s and %s", first, second)
	}

	hash := sha256.Sum256([]byte("Test App_1.2.3"))
	if expected := hex.EncodeToString(hash[:]); first != expected {
		t.Errorf("Expected GUID %s, got %s", expected, first)
	}

	if GUID("Test App", "1.2.4") == first {
		t.Error("Expected different GUID for a different version")
	}
	if GUID("Other App", "1.2.3") == first {
		t.Error("Expected different GUID for a different title")
	}
}

func TestGenerateRSS_ControlCharacters(t *testing.T) {
	generator := newTestGenerator()
	validator := NewValidator()

	tests := []struct {
		name   string
		modify func(*AppRecord)
	}{
		{"description", func(r *AppRecord) { r.Description = "vertical\vtab and bell\a" }},
		{"title", func(r *AppRecord) { r.Title = "Bell\a App" }},
		{"changelog", func(r *AppRecord) { r.Changelog = "nul\x00 and escape\x1b" }},
		{"keywords", func(r *AppRecord) { r.Keywords = []string{"form\ffeed"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := sampleRecord()
			tt.modify(&record)

			rss, err := generator.Run([]AppRecord{record})
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}

			if err := validator.Run(rss, 1); err != nil {
				t.Errorf("Expected valid feed, got: %v", err)
			}

			if !strings.Contains(rss, "�") {
				t.Error("Expected invalid characters to be replaced with U+FFFD")
			}
		})
	}
}

func TestXMLSafe(t *testing.T) {
	input := "tab\tnewline\ncr\r ok é 😀"
	if got := xmlSafe(input); got != input {
		t.Errorf("Expected %q unchanged, got %q", input, got)
	}

	if got := xmlSafe("a\vb\x01c"); got != "a�b�c" {
		t.Errorf("Expected control characters replaced, got %q", got)
	}
}
