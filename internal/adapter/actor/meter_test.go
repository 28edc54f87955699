package actor

import (
	"strings"
	"testing"
	"time"

	"github.com/berfenger/wibeee2mqtt/internal/core/domain"
	"github.com/berfenger/wibeee2mqtt/internal/core/service"
	"github.com/berfenger/wibeee2mqtt/internal/util/actorutil"
	"github.com/berfenger/wibeee2mqtt/pkg/wibeee"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnTestMeterActor(t *testing.T, dev *wibeee.TestDevice) (*actor.ActorSystem, *actor.PID) {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)

	provider := service.WibeeeMeterProvider(wibeee.PlatformConfig{
		Host:         dev.Host(),
		Name:         "Wibeee",
		ScanInterval: time.Nanosecond,
	}, logger)
	props := actor.PropsFromProducer(func() actor.Actor { return NewMeterActor(provider, logger) })
	pid := as.Root.Spawn(props)
	t.Cleanup(func() {
		as.Root.Stop(pid)
		as.Shutdown()
	})
	return as, pid
}

func TestMeterActorInfo(t *testing.T) {

	dev := wibeee.NewTestDevice(wibeee.TEST_STATUS_XML)
	defer dev.Close()

	as, pid := spawnTestMeterActor(t, dev)

	// sent before setup completes, answered once it does
	result, err := as.Root.RequestFuture(pid, domain.GetMeterInfoRequest{}, 15*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.GetMeterInfoResponse)
	require.True(t, ok)
	require.False(t, resp.HasResponseError())
	require.NotNil(t, resp.Meter)

	assert.Equal(t, dev.Host(), resp.Meter.Host)
	assert.Equal(t, "Wibeee", resp.Meter.Name)
	require.Len(t, resp.Meter.Readings, 12)
	assert.Equal(t, "wibeee_phase1_vrms", resp.Meter.Readings[0].Key)
	assert.Equal(t, "231.03", resp.Meter.Readings[0].Value)
}

func TestMeterActorRefresh(t *testing.T) {

	dev := wibeee.NewTestDevice(wibeee.TEST_STATUS_XML)
	defer dev.Close()

	as, pid := spawnTestMeterActor(t, dev)

	_, err := as.Root.RequestFuture(pid, domain.GetMeterInfoRequest{}, 15*time.Second).Result()
	require.NoError(t, err)

	dev.SetBody(strings.Replace(wibeee.TEST_STATUS_XML, "231.03", "228.00", 1))

	result, err := as.Root.RequestFuture(pid, domain.RefreshReadingsRequest{}, 15*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.RefreshReadingsResponse)
	require.True(t, ok)
	require.False(t, resp.HasResponseError())

	assert.Equal(t, 12, resp.Updated)
	assert.Zero(t, resp.Failed)
	assert.Equal(t, "228.00", resp.Readings[0].Value)
}

func TestMeterActorRefreshDeviceDown(t *testing.T) {

	dev := wibeee.NewTestDevice(wibeee.TEST_STATUS_XML)
	defer dev.Close()

	as, pid := spawnTestMeterActor(t, dev)

	_, err := as.Root.RequestFuture(pid, domain.GetMeterInfoRequest{}, 15*time.Second).Result()
	require.NoError(t, err)

	dev.SetStatusCode(503)

	result, err := as.Root.RequestFuture(pid, domain.RefreshReadingsRequest{}, 15*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.RefreshReadingsResponse)

	assert.Equal(t, 12, resp.Failed)
	assert.Zero(t, resp.Updated)
	assert.Equal(t, "231.03", resp.Readings[0].Value, "previous value kept")
}

func TestMeterActorHealth(t *testing.T) {

	dev := wibeee.NewTestDevice(wibeee.TEST_STATUS_XML)
	defer dev.Close()

	as, pid := spawnTestMeterActor(t, dev)

	result, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 15*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.ActorHealthResponse)
	require.True(t, ok)
	assert.True(t, resp.Healthy)
	assert.Equal(t, domain.ACTOR_ID_METER, resp.Id)
}
