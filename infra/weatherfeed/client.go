package weatherfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// DefaultTimeout bounds a single feed request.
const DefaultTimeout = 5 * time.Second

// Config describes the weather feed. An empty URL disables the feed and the
// service runs on default conditions.
type Config struct {
	URL      string        `json:"url"`
	Location string        `json:"location"`
	Timeout  time.Duration `json:"timeout"`
	// Static thresholds applied on top of whatever the feed reports.
	MaxWindSpeed float64 `json:"max_wind_speed"`
	MinTideLevel float64 `json:"min_tide_level"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Location == "" {
		c.Location = "port"
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks the feed URL when one is set.
func (c Config) Validate() error {
	if c.MaxWindSpeed < 0 || c.MinTideLevel < 0 {
		return errors.New("weather: thresholds must not be negative")
	}
	if c.URL == "" {
		return nil
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("weather: invalid url %q", c.URL)
	}
	return nil
}

// Thresholds returns the configured static thresholds.
func (c Config) Thresholds() model.Thresholds {
	return model.Thresholds{MaxWindSpeed: c.MaxWindSpeed, MinTideLevel: c.MinTideLevel}
}

// Client implements weather.Provider against GET {base}/weather?location=X.
type Client struct {
	baseURL    string
	location   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a feed client for cfg.
func NewClient(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		location: cfg.Location,
		timeout:  cfg.Timeout,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Current fetches the latest conditions for the configured location.
func (c *Client) Current(ctx context.Context) (model.WeatherState, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Add("location", c.location)
	requestURL := fmt.Sprintf("%s/weather?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return model.WeatherState{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.WeatherState{}, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.WeatherState{}, fmt.Errorf("weather feed returned status %d", resp.StatusCode)
	}

	var st model.WeatherState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return model.WeatherState{}, fmt.Errorf("failed to decode weather: %w", err)
	}
	if st.Location == "" {
		st.Location = c.location
	}
	if st.Timestamp.IsZero() {
		st.Timestamp = time.Now().UTC()
	}
	return st, nil
}
