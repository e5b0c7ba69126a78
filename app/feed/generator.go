package feed

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"
)

// RFC 822 date with a four-digit year, as RSS readers expect.
const rfc822 = "Mon, 02 Jan 2006 15:04:05 GMT"

type Generator struct {
	channel Channel
	now     func() time.Time
}

func NewGenerator(channel Channel) *Generator {
	return &Generator{
		channel: channel,
		now:     time.Now,
	}
}

// Run renders records, already in feed order, as an RSS 0.91 document.
func (g *Generator) Run(records []AppRecord) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="0.91">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", g.channel.Title, 4)
	g.writeElement(&buf, "link", g.channel.Link, 4)
	g.writeElement(&buf, "description", g.channel.Description, 4)
	g.writeElement(&buf, "language", g.channel.Language, 4)
	g.writeElement(&buf, "copyright", g.channel.Copyright, 4)

	buildDate := g.now().UTC()
	pubDate := buildDate
	if len(records) > 0 {
		pubDate = records[0].LastUpdated
	}

	g.writeElement(&buf, "pubDate", formatDate(pubDate), 4)
	g.writeElement(&buf, "lastBuildDate", formatDate(buildDate), 4)

	for _, record := range records {
		if err := g.writeItem(&buf, record); err != nil {
			return "", fmt.Errorf("failed to render %s %s: %w", record.Title, record.Version, err)
		}
	}

	buf.WriteString("  </channel>\n</rss>\n")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, record AppRecord) error {
	if record.Title == "" {
		return fmt.Errorf("record has no title")
	}

	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", record.Title+" "+record.Version, 6)
	g.writeElement(buf, "pubDate", formatDate(record.LastUpdated), 6)
	g.writeElement(buf, "guid", GUID(record.Title, record.Version), 6)

	buf.WriteString("      <description><![CDATA[")
	buf.WriteString(escapeCDATA(xmlSafe(describe(record))))
	buf.WriteString("]]></description>\n")

	buf.WriteString("    </item>\n")
	return nil
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// GUID identifies a (title, version) pair across runs.
func GUID(title, version string) string {
	hash := sha256.Sum256([]byte(title + "_" + version))
	return hex.EncodeToString(hash[:])
}

func formatDate(t time.Time) string {
	return t.UTC().Format(rfc822)
}

func describe(record AppRecord) string {
	changelog := record.Changelog
	if strings.TrimSpace(changelog) == "" {
		changelog = " "
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<img src="%s" alt="%s" /><br/>`, html.EscapeString(record.IconURL), html.EscapeString(record.Title))
	fmt.Fprintf(&b, "<b>Publisher:</b> %s<br/>", html.EscapeString(record.Publisher))
	fmt.Fprintf(&b, "<b>Price:</b> %.1f<br/>", record.Price)
	fmt.Fprintf(&b, "<b>Description:</b><br/>%s<br/>", htmlText(record.Description))
	fmt.Fprintf(&b, "<b>Architecture:</b> %s<br/>", joinList(record.Architecture))
	fmt.Fprintf(&b, "<b>Framework:</b> %s<br/>", joinList(record.Framework))
	fmt.Fprintf(&b, "<b>Keywords:</b> %s<br/>", joinList(record.Keywords))
	fmt.Fprintf(&b, "<b>Whitelisted countries:</b> %s<br/>", joinList(record.WhitelistCountryCodes))
	fmt.Fprintf(&b, "<b>Changelog:</b><br/>%s", htmlText(changelog))
	return b.String()
}

// htmlText escapes s and turns newlines into line breaks.
func htmlText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br/>")
}

func joinList(values []string) string {
	return html.EscapeString(strings.Join(values, ", "))
}

// xmlSafe replaces runes XML 1.0 does not allow, control characters
// included, with U+FFFD. CDATA sections are not escaped by the parser.
func xmlSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return '\uFFFD'
	}, s)
}

func isXMLChar(r rune) bool {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// escapeCDATA splits any "]]>" so it cannot close the section early.
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
