package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/berthplan/app"
	"github.com/kilianp07/berthplan/config"
	"github.com/kilianp07/berthplan/core/factory"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/runlog"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

// startInflux starts an InfluxDB 2.7 container already set up with the
// suite's org, bucket and token.
func startInflux(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a broker accepting anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func subscribe(t *testing.T, broker string) <-chan []byte {
	t.Helper()
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-sub"))
	tok := sub.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	t.Cleanup(func() { sub.Disconnect(100) })

	got := make(chan []byte, 16)
	tok = sub.Subscribe("berthplan/dock/+/allocation", 1, func(_ paho.Client, m paho.Message) {
		got <- m.Payload()
	})
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	return got
}

// Test_E2E_AllocationRun seeds the service, runs an allocation and checks the
// berth assignments reach the broker and the run reaches InfluxDB.
func Test_E2E_AllocationRun(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxURL := startInflux(ctx, t)
	broker := startMosquitto(ctx, t)
	t.Logf("InfluxDB started at %s", influxURL)
	t.Logf("Mosquitto started at %s", broker)
	msgs := subscribe(t, broker)

	cfg := &config.Config{}
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Store.Seed = true
	cfg.RunLog = runlog.Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "runs.db")}
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = broker
	cfg.MQTT.QoS = 1
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "influx", Conf: map[string]any{
		"url":    influxURL,
		"token":  influxToken,
		"org":    influxOrg,
		"bucket": influxBucket,
	}}}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := app.New(cfg)
	require.NoError(t, err)
	defer svc.Close()

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- svc.Run(runCtx) }()
	defer func() {
		stop()
		<-done
	}()
	// the event collector subscribes once Run is scheduled
	time.Sleep(200 * time.Millisecond)

	res, err := svc.RunAllocation(ctx, model.GoalBalanced, model.Thresholds{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Allocations)

	ids := make(map[string]bool)
	for _, a := range res.Allocations {
		ids[a.ID] = true
	}
	for range res.Allocations {
		select {
		case b := <-msgs:
			var msg map[string]any
			require.NoError(t, json.Unmarshal(b, &msg))
			assert.True(t, ids[fmt.Sprint(msg["id"])], "unexpected allocation %v", msg["id"])
		case <-time.After(10 * time.Second):
			t.Fatal("allocation not published")
		}
	}

	influx := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer influx.Close()
	require.True(t, influx.Ready(ctx))
	require.Eventually(t, func() bool {
		n, err := influx.CountPoints(ctx, "allocation_run", "allocated", 5*time.Minute)
		return err == nil && n == 1
	}, 20*time.Second, 500*time.Millisecond, "allocation_run point")
}
