package actor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	adactor "github.com/berfenger/wibeee2mqtt/internal/adapter/actor"
	"github.com/berfenger/wibeee2mqtt/internal/core/domain"
	"github.com/berfenger/wibeee2mqtt/internal/core/service"
	"github.com/berfenger/wibeee2mqtt/internal/util"
	"github.com/berfenger/wibeee2mqtt/pkg/wibeee"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	dev := wibeee.NewTestDevice(wibeee.TEST_STATUS_XML)
	defer dev.Close()

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	cfg.Wibeee.Host = dev.Host()
	cfg.MQTT.HADiscoveryEnable = true
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	recorder := &adactor.PublishRecorder{}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.MeterActor {
			return adactor.NewMeterActor(service.WibeeeMeterProvider(cfg.Wibeee.PlatformConfig(), logger), logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, recorder, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	// poller publishes every reading
	assert.Eventually(t, func() bool {
		m, ok := recorder.Find("wibeee/sensor/wibeee_phase4_active_power/state")
		return ok && m.Payload == "778.00"
	}, 5*time.Second, 100*time.Millisecond)

	// discovery describes the bridge and every reading
	configs := 0
	for _, m := range recorder.Messages() {
		if strings.HasPrefix(m.Topic, "homeassistant/") && strings.HasSuffix(m.Topic, "/config") {
			configs++
		}
	}
	assert.Equal(t, 1+12, configs)

	// values picked up on the next tick
	dev.SetBody(strings.Replace(wibeee.TEST_STATUS_XML, "778.00", "801.00", 1))
	assert.Eventually(t, func() bool {
		m, ok := recorder.Find("wibeee/sensor/wibeee_phase4_active_power/state")
		return ok && m.Payload == "801.00"
	}, 5*time.Second, 100*time.Millisecond)

	context.Stop(pid)

	as.Shutdown()
}

func TestDiscoverySensors(t *testing.T) {

	meter := &domain.MeterInfo{
		Host: "192.168.1.50",
		Name: "Wibeee",
		Readings: []domain.ReadingInfo{
			{Key: "wibeee_phase1_vrms", Name: "Wibeee_Phase1_Vrms", Metric: wibeee.METRIC_VRMS, Unit: "V"},
			{Key: "wibeee_phase1_irms", Name: "Wibeee_Phase1_Irms", Metric: wibeee.METRIC_IRMS, Unit: "A"},
		},
	}

	sensors := DiscoverySensors("wibeee", meter)

	require.Len(t, sensors, 3)
	assert.Equal(t, domain.SENSOR_ID_BRIDGE_STATE, sensors[0].Id)
	assert.Equal(t, "wibeee_phase1_vrms", sensors[1].Id)
	assert.Equal(t, domain.BridgeDevice("wibeee").Id, sensors[1].Device.ViaDevice)
	assert.Empty(t, sensors[2].Device.Model, "only the first meter sensor carries the device description")
}
