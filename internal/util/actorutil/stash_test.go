package actorutil

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stashLenRequest struct {
}

type stashFlushRequest struct {
}

type stashSeenRequest struct {
}

func TestStashReplaysInOrder(t *testing.T) {

	as := actor.NewActorSystem()
	defer as.Shutdown()

	stash := &Stash{}
	busy := true
	var seen []string

	props := actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case stashLenRequest:
			ctx.Respond(stash.Len())
		case stashFlushRequest:
			busy = false
			stash.UnstashAll(ctx)
			ctx.Respond(stash.Len())
		case stashSeenRequest:
			out := make([]string, len(seen))
			copy(out, seen)
			ctx.Respond(out)
		case string:
			if busy {
				stash.Stash(ctx, msg)
			} else {
				seen = append(seen, msg)
			}
		}
	})
	pid := as.Root.Spawn(props)

	as.Root.Send(pid, "a")
	as.Root.Send(pid, "b")

	res, err := as.Root.RequestFuture(pid, stashLenRequest{}, time.Second).Result()
	require.NoError(t, err)
	assert.Equal(t, 2, res)

	res, err = as.Root.RequestFuture(pid, stashFlushRequest{}, time.Second).Result()
	require.NoError(t, err)
	assert.Equal(t, 0, res)

	res, err = as.Root.RequestFuture(pid, stashSeenRequest{}, time.Second).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res)
}
