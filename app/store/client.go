package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUpstream marks responses that carry the store's error indicator.
var ErrUpstream = errors.New("store returned an error")

type Client struct {
	httpClient *http.Client
	searchURL  string
	userAgent  string
	timeout    time.Duration
	maxPages   int
}

func NewClient(httpClient *http.Client, searchURL, userAgent string, timeout time.Duration, maxPages int) *Client {
	return &Client{
		httpClient: httpClient,
		searchURL:  searchURL,
		userAgent:  userAgent,
		timeout:    timeout,
		maxPages:   maxPages,
	}
}

// ListPackages queries the search endpoint and follows next links until
// there are none, a link repeats or the page limit is hit.
func (c *Client) ListPackages(ctx context.Context) ([]PackageStub, error) {
	var stubs []PackageStub

	visited := make(map[string]bool)
	pageURL := c.searchURL

	for page := 1; pageURL != ""; page++ {
		if page > c.maxPages {
			slog.Warn("Search page limit reached, ignoring remaining pages", "max_pages", c.maxPages, "next", pageURL)
			break
		}
		visited[pageURL] = true

		base, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid search URL %s: %w", pageURL, err)
		}

		var resp searchResponse
		if err := c.getJSON(ctx, pageURL, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch search page %d: %w", page, err)
		}

		for _, pkg := range resp.Embedded.Packages {
			stub, err := newPackageStub(base, pkg)
			if err != nil {
				return nil, err
			}
			stubs = append(stubs, stub)
		}

		slog.Debug("Search page fetched", "page", page, "packages", len(resp.Embedded.Packages))

		pageURL = ""
		if resp.Links.Next != nil && resp.Links.Next.Href != "" {
			next, err := resolveURL(base, resp.Links.Next.Href)
			if err != nil {
				return nil, fmt.Errorf("invalid next link on search page %d: %w", page, err)
			}
			if visited[next] {
				slog.Debug("Search next link already visited, stopping", "next", next)
				break
			}
			pageURL = next
		}
	}

	return stubs, nil
}

func (c *Client) FetchDetails(ctx context.Context, detailURL string) (*Details, error) {
	var resp detailResponse
	if err := c.getJSON(ctx, detailURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch details: %w", err)
	}

	lastUpdated, err := ParseTimestamp(resp.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("invalid last_updated in %s: %w", detailURL, err)
	}

	var changelog string
	if resp.Changelog != nil {
		changelog = strings.TrimSpace(*resp.Changelog)
	}

	return &Details{
		Version:               resp.Version,
		Description:           resp.Description,
		Changelog:             changelog,
		LastUpdated:           lastUpdated,
		IconURL:               resp.IconURL,
		Price:                 float64(resp.Price),
		Architecture:          resp.Architecture,
		Framework:             resp.Framework,
		Keywords:              resp.Keywords,
		WhitelistCountryCodes: resp.WhitelistCountryCodes,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := upstreamError(url, data); err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse JSON from %s: %w", url, err)
	}

	return nil
}

// upstreamError reports a body whose top-level object has an "Error" key,
// whatever its value. The key match is exact.
func upstreamError(url string, data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	raw, ok := fields["Error"]
	if !ok {
		return nil
	}

	var message string
	if err := json.Unmarshal(raw, &message); err != nil || message == "" {
		message = string(raw)
	}

	return fmt.Errorf("%w: %s: %s", ErrUpstream, url, message)
}

func newPackageStub(base *url.URL, pkg searchPackage) (PackageStub, error) {
	if pkg.Links.Self.Href == "" {
		return PackageStub{}, fmt.Errorf("package %q has no detail link", pkg.Name)
	}

	detailURL, err := resolveURL(base, pkg.Links.Self.Href)
	if err != nil {
		return PackageStub{}, fmt.Errorf("invalid detail link for package %q: %w", pkg.Name, err)
	}

	return PackageStub{
		Name:      pkg.Name,
		Title:     cmp.Or(pkg.Title, pkg.Name),
		Publisher: pkg.Publisher,
		DetailURL: detailURL,
	}, nil
}

func resolveURL(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
