package actor

import (
	"testing"
	"time"

	"github.com/berfenger/wibeee2mqtt/internal/core/domain"
	"github.com/berfenger/wibeee2mqtt/internal/core/events"
	"github.com/berfenger/wibeee2mqtt/internal/util"
	"github.com/berfenger/wibeee2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	es := eventstream.EventStream{}
	recorder := &PublishRecorder{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, recorder, logger) })
	pid := context.Spawn(props)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)

	actorutil.PublishAll(&es, events.ReadingsToUpdateEvents([]domain.ReadingInfo{
		{Key: "wibeee_phase1_vrms", Value: "231.03"},
		{Key: "wibeee_phase1_active_power", Value: "262.00"},
	}))
	actorutil.PublishAll(&es, events.BridgeStateUpdateEvents(true))

	assert.Eventually(t, func() bool {
		return len(recorder.Messages()) == 3
	}, 2*time.Second, 50*time.Millisecond)

	m, ok := recorder.Find("wibeee/sensor/wibeee_phase1_vrms/state")
	require.True(t, ok)
	assert.Equal(t, "231.03", m.Payload)
	assert.False(t, m.Retain)

	m, ok = recorder.Find("wibeee/sensor/wibeee_phase1_active_power/state")
	require.True(t, ok)
	assert.Equal(t, "262.00", m.Payload)

	m, ok = recorder.Find("wibeee/bridge/state")
	require.True(t, ok)
	assert.Equal(t, "online", m.Payload)
	assert.True(t, m.Retain)

	context.Stop(pid)

	time.Sleep(100 * time.Millisecond)

	as.Shutdown()
}

func TestMQTTActorDiscovery(t *testing.T) {

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	recorder := &PublishRecorder{}
	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, nil, recorder, logger) })
	pid := as.Root.Spawn(props)
	defer as.Root.Stop(pid)

	info := &domain.MeterInfo{
		Host: "192.168.1.50",
		Name: "Wibeee",
		Readings: []domain.ReadingInfo{
			{Key: "wibeee_phase1_vrms", Name: "Wibeee_Phase1_Vrms", Metric: "vrms", Unit: "V"},
		},
	}
	meterDevice := domain.MeterDevice(info)
	sensors := domain.MeterSensors(meterDevice, info.Readings)

	result, err := as.Root.RequestFuture(pid, domain.PublishDiscoveryRequest{Sensors: sensors}, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.PublishDiscoveryResponse)
	require.True(t, ok)
	assert.False(t, resp.HasResponseError())

	m, ok := recorder.Find("homeassistant/sensor/" + meterDevice.Id + "/wibeee_phase1_vrms/config")
	require.True(t, ok)
	assert.True(t, m.Retain)
	assert.Contains(t, m.Payload, `"state_topic":"wibeee/sensor/wibeee_phase1_vrms/state"`)
	assert.Contains(t, m.Payload, `"unit_of_measurement":"V"`)
}
