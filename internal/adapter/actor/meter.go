package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/wibeee2mqtt/internal/core/domain"
	"github.com/berfenger/wibeee2mqtt/internal/core/port"
	"github.com/berfenger/wibeee2mqtt/internal/metrics"
	"github.com/berfenger/wibeee2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	METER_SETUP_TIMEOUT   = 15 * time.Second
	METER_REFRESH_TIMEOUT = 30 * time.Second
)

// MeterActor owns the meter. Device I/O runs in background tasks; messages
// received meanwhile are stashed.
type MeterActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	provider port.MeterProvider
	meter    port.Meter
	host     string
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

type meterSetupResult struct {
	meter port.Meter
	err   error
}

func NewMeterActor(provider port.MeterProvider, logger *zap.Logger) *MeterActor {
	act := &MeterActor{
		provider: provider,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_METER, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MeterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MeterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("meter@starting started")
		actorutil.NewBackgroundTask(ctx, state.setup).Recover(func(err error) meterSetupResult {
			return meterSetupResult{err: err}
		}).WithTimeout(METER_SETUP_TIMEOUT).PipeTo(ctx.Self())
	case meterSetupResult:
		if msg.err != nil {
			// let the supervisor back off and retry
			state.logger.Error("meter@starting setup failed", zap.Error(msg.err))
			panic(msg.err)
		}
		state.meter = msg.meter
		info := state.meter.Info()
		state.host = info.Host
		metrics.SetReadings(info.Host, len(info.Readings))
		state.logger.Info("meter@starting ready", zap.String("host", info.Host), zap.Int("readings", len(info.Readings)))
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.stash.Stash(ctx, msg)
		state.logger.Debug("meter@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)), zap.Int("stashed", state.stash.Len()))
	}
}

func (state *MeterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("meter@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_METER,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetMeterInfoRequest:
		state.logger.Debug("meter@default: GetMeterInfoRequest")
		info := state.meter.Info()
		actorutil.ForRequest(msg).Respond(ctx, domain.GetMeterInfoResponse{
			Meter: &info,
		})
	case domain.RefreshReadingsRequest:
		state.logger.Debug("meter@default: RefreshReadingsRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTaskNoError(ctx, state.refreshReadings),
			mapTaskResult[domain.RefreshReadingsResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.RefreshReadingsResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(METER_REFRESH_TIMEOUT + time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingMeter)
	default:
		state.logger.Debug("meter@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MeterActor) WaitingMeter(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("meter@WaitingMeter backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_METER,
			Healthy: true,
			State:   "refreshing",
		})
	default:
		state.stash.Stash(ctx, msg)
		state.logger.Debug("meter@WaitingMeter stash", zap.String("type", fmt.Sprintf("%T", msg)), zap.Int("stashed", state.stash.Len()))
	}
}

func (state *MeterActor) setup() (*meterSetupResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), METER_SETUP_TIMEOUT)
	defer cancel()
	meter, err := state.provider(ctx)
	if err != nil {
		return nil, err
	}
	return &meterSetupResult{meter: meter}, nil
}

func (state *MeterActor) refreshReadings() *domain.RefreshReadingsResponse {
	ctx, cancel := context.WithTimeout(context.Background(), METER_REFRESH_TIMEOUT)
	defer cancel()
	refresh := state.meter.RefreshReadings(ctx)
	metrics.RecordRefreshFailures(state.host, refresh.Failed)
	if refresh.Failed > 0 {
		state.logger.Warn("meter@refresh some readings kept their previous value", zap.Int("failed", refresh.Failed))
	}
	return &domain.RefreshReadingsResponse{
		Readings: refresh.Readings,
		Updated:  refresh.Updated,
		Failed:   refresh.Failed,
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
