// Package e2e drives the whole service against real InfluxDB and Mosquitto
// containers.
package e2e

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient wraps the official client with the org and bucket the suite
// reads back from.
type InfluxClient struct {
	org    string
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

// NewInfluxClient creates a client for a running server.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{
		org:    org,
		bucket: bucket,
		client: c,
		query:  c.QueryAPI(org),
	}
}

// Ready reports whether the server answers its health check.
func (c *InfluxClient) Ready(ctx context.Context) bool {
	h, err := c.client.Health(ctx)
	return err == nil && h.Status == "pass"
}

// CountPoints returns the number of values of field in measurement written
// during the last window.
func (c *InfluxClient) CountPoints(ctx context.Context, measurement, field string, window time.Duration) (int, error) {
	flux := fmt.Sprintf(`from(bucket:%q)
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == %q and r._field == %q)`,
		c.bucket, window, measurement, field)
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	n := 0
	for res.Next() {
		n++
	}
	return n, res.Err()
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
