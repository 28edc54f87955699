package actor

import (
	"fmt"
	"time"

	adactor "github.com/berfenger/wibeee2mqtt/internal/adapter/actor"
	"github.com/berfenger/wibeee2mqtt/internal/core/domain"
	"github.com/berfenger/wibeee2mqtt/internal/core/events"
	"github.com/berfenger/wibeee2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// PollerActor asks the meter for fresh readings every interval and
// publishes them on the event stream.
type PollerActor struct {
	actorutil.ActorWithStates
	stash      *actorutil.Stash
	scheduler  *scheduler.TimerScheduler
	cancelTick scheduler.CancelFunc
	current    actorutil.ActorState

	meterActor  *actor.PID
	eventStream *eventstream.EventStream
	interval    time.Duration

	logger *zap.Logger
}

const (
	// added to every tick so consecutive polls never land inside the
	// meter's throttle window
	POLL_TICK_MARGIN = 50 * time.Millisecond
)

type pollTick struct {
}

type pollerIdle struct {
	*PollerActor
}

type pollerWaiting struct {
	*PollerActor
}

func NewPollerActor(interval time.Duration, meterActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		ActorWithStates: actorutil.ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
		stash:       &actorutil.Stash{},
		meterActor:  meterActor,
		eventStream: eventStream,
		interval:    interval,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_POLLER, logger),
	}
	act.Behavior.Become(act.StartingReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

func (state *PollerActor) become(next actorutil.ActorState) {
	state.current = next
	state.Become(next)
}

func (state *PollerActor) becomeStacked(next actorutil.ActorState) {
	state.current = next
	state.BecomeStacked(next)
}

func (state *PollerActor) unbecomeStacked() {
	state.current = pollerIdle{state}
	state.UnbecomeStacked()
}

func (state *PollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@starting started", zap.Duration("interval", state.interval))
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		// first poll right away
		ctx.Send(ctx.Self(), pollTick{})
		state.become(pollerIdle{state})
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) respondHealth(ctx actor.Context) {
	ctx.Respond(domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_POLLER,
		Healthy: true,
		State:   state.current.Name(),
	})
}

func (state *PollerActor) stop() {
	if state.cancelTick != nil {
		state.cancelTick()
		state.cancelTick = nil
	}
}

func (s pollerIdle) Name() string {
	return "idle"
}

func (s pollerIdle) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		s.logger.Debug("poller@idle: ActorHealthRequest")
		s.respondHealth(ctx)
	case pollTick:
		s.logger.Debug("poller@idle tick")
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(s.meterActor, domain.RefreshReadingsRequest{}, adactor.METER_REFRESH_TIMEOUT+2*time.Second), func(err error) any {
			return domain.RefreshReadingsResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// schedule next tick
		s.cancelTick = s.scheduler.RequestOnce(s.interval+POLL_TICK_MARGIN, ctx.Self(), pollTick{})
		s.becomeStacked(pollerWaiting{s.PollerActor})
	case *actor.Stopping:
		s.stop()
	default:
		s.logger.Debug("poller@idle: unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (s pollerWaiting) Name() string {
	return "waiting"
}

func (s pollerWaiting) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.RefreshReadingsResponse:
		if msg.HasResponseError() {
			s.logger.Error("poller@waiting RefreshReadingsResponse error", zap.Error(msg.GetResponseError()))
		} else {
			s.logger.Debug("poller@waiting RefreshReadingsResponse", zap.Int("updated", msg.Updated), zap.Int("failed", msg.Failed))
			actorutil.PublishAll(s.eventStream, events.ReadingsToUpdateEvents(msg.Readings))
		}
		s.unbecomeStacked()
		s.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		s.respondHealth(ctx)
	case pollTick:
		// a refresh is still in flight; skip this one
		s.logger.Debug("poller@waiting tick skipped")
		s.cancelTick = s.scheduler.RequestOnce(s.interval+POLL_TICK_MARGIN, ctx.Self(), pollTick{})
	case *actor.Stopping:
		s.stop()
	default:
		s.logger.Debug("poller@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		s.stash.Stash(ctx, msg)
	}
}
