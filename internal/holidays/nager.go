package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// NagerClient fetches public holidays from a Nager.Date compatible API.
type NagerClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNagerClient builds a client. ratePerSecond <= 0 disables throttling.
func NewNagerClient(baseURL string, timeout time.Duration, ratePerSecond float64) *NagerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &NagerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

type nagerHoliday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Global    bool   `json:"global"`
}

// Fetch returns the YYYY-MM-DD dates of the public holidays of a year.
func (c *NagerClient) Fetch(ctx context.Context, jurisdiction string, year int) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/PublicHolidays/%d/%s", c.baseURL, year, strings.ToUpper(jurisdiction))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch holidays: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload []nagerHoliday
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode holidays: %w", err)
	}

	days := make([]string, 0, len(payload))
	for _, h := range payload {
		if h.Date != "" {
			days = append(days, h.Date)
		}
	}
	return days, nil
}
