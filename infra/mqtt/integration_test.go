//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/berthplan/core/model"
)

// TestNotifier_Mosquitto publishes to a real broker and reads the message back.
func TestNotifier_Mosquitto(t *testing.T) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:1.6",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("sub"))
	tok := sub.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)

	got := make(chan []byte, 1)
	tok = sub.Subscribe("berthplan/dock/+/allocation", 1, func(_ paho.Client, m paho.Message) {
		got <- m.Payload()
	})
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	n, err := NewNotifier(Config{Enabled: true, Broker: broker, ClientID: "pub", QoS: 1})
	require.NoError(t, err)
	defer n.Disconnect()
	require.NoError(t, n.NotifyAllocations(ctx, []model.Allocation{{ID: "a1", ShipID: "s1", DockID: "d1"}}))

	select {
	case b := <-got:
		var msg map[string]any
		require.NoError(t, json.Unmarshal(b, &msg))
		assert.Equal(t, "a1", msg["id"])
		assert.Equal(t, "d1", msg["dockId"])
	case <-time.After(10 * time.Second):
		t.Fatal("no message received")
	}
}
