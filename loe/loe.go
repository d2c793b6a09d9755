// Package loe fetches the LOE outage-schedule menu API and extracts the raw
// HTML fragment carrying the hourly schedule.
package loe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// DefaultAPIURL is the menu endpoint that carries the photo-grafic schedule.
const DefaultAPIURL = "https://api.loe.lviv.ua/api/menus?page=1&type=photo-grafic"

// scheduleType tags the menu entries that carry the schedule fragment.
const scheduleType = "photo-grafic"

// Client fetches schedule fragments from the LOE menu API.
type Client struct {
	client *http.Client
	logger *slog.Logger
	apiURL string
}

// New creates a new API client. The http.Client's timeout bounds each fetch.
func New(client *http.Client, apiURL string, logger *slog.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		client: client,
		apiURL: apiURL,
		logger: logger,
	}
}

// menuResponse mirrors the hydra collection shape of the menu API.
type menuResponse struct {
	Members []menuEntry `json:"hydra:member"`
}

type menuEntry struct {
	Type  string     `json:"type"`
	Items []menuItem `json:"menuItems"`
}

// menuItem carries up to three variants of the schedule markup. Field order
// is the lookup priority.
type menuItem struct {
	RawHTML       string `json:"rawhtml"`
	RawHTMLAlt    string `json:"rawHtml"`
	RawMobileHTML string `json:"rawMobileHtml"`
}

// fragment returns the first non-empty HTML variant of the item.
func (it *menuItem) fragment() string {
	switch {
	case it.RawHTML != "":
		return it.RawHTML
	case it.RawHTMLAlt != "":
		return it.RawHTMLAlt
	default:
		return it.RawMobileHTML
	}
}

// Fragment fetches the menu API and returns the raw HTML blob describing the
// current schedule edition. It returns a TransportError on network or HTTP
// failure, a FormatError when the payload is not the expected collection, and
// a NotFoundError when no entry carries a usable fragment.
func (c *Client) Fragment(ctx context.Context) (string, error) {
	var fragment string

	err := retry.Do(
		func() error {
			c.logger.Info("HTTP request starting",
				"method", "GET",
				"url", c.apiURL,
				"purpose", "fetch_schedule_menu")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, http.NoBody)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}

			// Browser-like headers so the origin does not block us.
			req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
			req.Header.Set("Accept", "application/ld+json, application/json;q=0.9, */*;q=0.8")
			req.Header.Set("Accept-Language", "uk-UA,uk;q=0.9,en;q=0.8")
			req.Header.Set("Referer", "https://poweroff.loe.lviv.ua/")

			startTime := time.Now()
			resp, err := c.client.Do(req)
			duration := time.Since(startTime)

			if err != nil {
				c.logger.Warn("HTTP request failed, will retry",
					"url", c.apiURL,
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return &TransportError{URL: c.apiURL, Err: err}
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					c.logger.Warn("Failed to close response body", "error", closeErr)
				}
			}()

			c.logger.Info("HTTP request completed",
				"url", c.apiURL,
				"status_code", resp.StatusCode,
				"duration_ms", duration.Milliseconds(),
				"content_length", resp.ContentLength)

			if resp.StatusCode != http.StatusOK {
				c.logger.Warn("HTTP request returned non-OK status, will retry", "status_code", resp.StatusCode)
				return &TransportError{URL: c.apiURL, StatusCode: resp.StatusCode}
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return &TransportError{URL: c.apiURL, Err: err}
			}

			frag, err := extractFragment(body)
			if err != nil {
				// A malformed payload or a payload with no fragment will
				// not fix itself within the retry window.
				c.logger.Error("Failed to locate schedule fragment", "error", err)
				return retry.Unrecoverable(err)
			}

			fragment = frag
			c.logger.Info("Schedule fragment located", "url", c.apiURL, "fragment_bytes", len(fragment))
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying menu fetch after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("after retries: %w", err)
	}

	return fragment, nil
}

// extractFragment locates the best HTML fragment in the menu payload.
// The first pass considers only entries tagged with the schedule type; the
// second pass, taken only when the first finds nothing, scans every entry.
func extractFragment(body []byte) (string, error) {
	var menu menuResponse
	if err := json.Unmarshal(body, &menu); err != nil {
		return "", &FormatError{Reason: "response is not valid JSON", Err: err}
	}

	if len(menu.Members) == 0 {
		return "", &FormatError{Reason: "response has no hydra:member entries"}
	}

	for _, entry := range menu.Members {
		if entry.Type != scheduleType {
			continue
		}
		for i := range entry.Items {
			if frag := entry.Items[i].fragment(); frag != "" {
				return frag, nil
			}
		}
	}

	// Fallback: the typed entry may be missing or renamed upstream.
	for _, entry := range menu.Members {
		for i := range entry.Items {
			if frag := entry.Items[i].fragment(); frag != "" {
				return frag, nil
			}
		}
	}

	return "", &NotFoundError{}
}
