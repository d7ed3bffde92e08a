package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
)

var (
	// ErrUnavailable wraps transport failures and timeouts.
	ErrUnavailable = errors.New("optimizer unavailable")
	// ErrBadResponse wraps non-success statuses and undecodable bodies.
	ErrBadResponse = errors.New("optimizer bad response")
)

// Client calls the allocation model endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	cred *ClientCred
	log  logger.Logger
}

// NewClient returns a client for cfg. hc may be nil.
func NewClient(cfg Config, hc *http.Client, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if cfg.URL == "" {
		return nil, errors.New("optimizer: url is required")
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	c := &Client{cfg: cfg, http: hc, log: log}
	if cfg.Auth != nil {
		c.cred = NewClientCred(*cfg.Auth, hc)
	}
	return c, nil
}

// Probe posts an empty payload. Any HTTP response means the service is up.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := c.post(ctx, []byte("{}"))
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

// Run sends the request and converts the answer to an allocation.Result.
func (c *Client) Run(ctx context.Context, req allocation.Request) (allocation.Result, error) {
	body, err := json.Marshal(toPayload(req))
	if err != nil {
		return allocation.Result{}, fmt.Errorf("encode request: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := c.post(ctx, body)
	if err != nil {
		return allocation.Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return allocation.Result{}, fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out responsePayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return allocation.Result{}, fmt.Errorf("%w: decode: %v", ErrBadResponse, err)
	}
	if out.Error != "" {
		return allocation.Result{}, fmt.Errorf("%w: %s", ErrBadResponse, out.Error)
	}
	return c.toResult(req, out)
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	r.Header.Set("Content-Type", "application/json")
	if c.cred != nil {
		if err := c.cred.SetAuthHeader(ctx, r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	resp, err := c.http.Do(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusUnauthorized && c.cred != nil {
		c.cred.Invalidate()
	}
	return resp, nil
}

func (c *Client) toResult(req allocation.Request, out responsePayload) (allocation.Result, error) {
	res := allocation.Result{
		Allocations: make([]model.Allocation, 0, len(out.Allocations)),
		Unassigned:  make([]allocation.Unassigned, 0, len(out.UnassignedShips)),
		Metrics:     out.Metrics,
		Weather:     req.Weather,
	}
	if out.WeatherWarning != nil {
		res.WeatherWarning = *out.WeatherWarning
	}
	for _, a := range out.Allocations {
		if a.ShipID == "" || a.DockID == "" {
			return allocation.Result{}, fmt.Errorf("%w: allocation %q without ship or dock", ErrBadResponse, a.ID)
		}
		a.StartTime = a.StartTime.UTC()
		a.EndTime = a.EndTime.UTC()
		a.Created = a.Created.UTC()
		if a.Status == "" {
			a.Status = model.StatusScheduled
		}
		res.Allocations = append(res.Allocations, a)
	}
	for _, u := range out.UnassignedShips {
		code := u.Code
		if code == "" {
			code = allocation.CodeOptimizer
		}
		res.Unassigned = append(res.Unassigned, allocation.Unassigned{Ship: u.Ship, Reason: u.Reason, Code: code})
	}
	if c.log != nil {
		c.log.Debugw("optimizer response", map[string]any{
			"allocations": len(res.Allocations),
			"unassigned":  len(res.Unassigned),
		})
	}
	return res, nil
}
