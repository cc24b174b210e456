package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDispatcher(t *testing.T) (*Dispatcher, *worker.WorkerPool) {
	t.Helper()
	pool := worker.NewWorkerPool(2, 10, zap.NewNop())
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)
	return New(pool, zap.NewNop()), pool
}

func TestDispatch_RunsHandlerAndEmits(t *testing.T) {
	d, _ := newDispatcher(t)
	d.Register("FetchGateways", func(ctx context.Context, a Action) Event {
		return Event{Type: "OnGatewaysChanged", RowsAffected: 3}
	})

	events := make(chan Event, 1)
	unsubscribe := d.Subscribe(func(e Event) { events <- e })
	defer unsubscribe()

	ctx := logging.WithLoggingFields(context.Background(), "trace-1", 7)
	require.NoError(t, d.Dispatch(ctx, Action{Type: "FetchGateways", LocalSiteID: 7}))

	select {
	case e := <-events:
		assert.Equal(t, EventType("OnGatewaysChanged"), e.Type)
		assert.Equal(t, 7, e.LocalSiteID)
		assert.Equal(t, 3, e.RowsAffected)
		assert.Equal(t, "trace-1", e.TraceID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not emitted")
	}
}

func TestDispatch_SurvivesCancelledRequestContext(t *testing.T) {
	d, _ := newDispatcher(t)
	done := make(chan error, 1)
	d.Register("Slow", func(ctx context.Context, a Action) Event {
		done <- ctx.Err()
		return Event{Type: "OnSlow"}
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(ctx, Action{Type: "Slow", LocalSiteID: 1}))
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handler not run")
	}
}

func TestDispatch_UnknownAction(t *testing.T) {
	d, _ := newDispatcher(t)
	err := d.Dispatch(context.Background(), Action{Type: "Nope"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = d.DispatchSync(context.Background(), Action{Type: "Nope"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestDispatchSync_ReturnsErrorEvent(t *testing.T) {
	d, _ := newDispatcher(t)
	d.Register("Fail", func(ctx context.Context, a Action) Event {
		return Event{Type: "OnFail", Error: woo.InvalidParam("bad")}
	})

	var got []Event
	var mu sync.Mutex
	d.Subscribe(func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	event, err := d.DispatchSync(context.Background(), Action{Type: "Fail", LocalSiteID: 2})
	require.NoError(t, err)
	assert.True(t, event.IsError())
	assert.Equal(t, 2, event.LocalSiteID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, woo.ErrorInvalidParam, got[0].Error.Type)
}

func TestDispatchSync_HandlerPanicBecomesErrorEvent(t *testing.T) {
	d, _ := newDispatcher(t)
	d.Register("Panics", func(ctx context.Context, a Action) Event { panic("boom") })

	event, err := d.DispatchSync(context.Background(), Action{Type: "Panics", LocalSiteID: 1})
	require.NoError(t, err)
	require.True(t, event.IsError())
	assert.Equal(t, EventType("OnPanics"), event.Type)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	d, _ := newDispatcher(t)
	calls := 0
	unsubscribe := d.Subscribe(func(e Event) { calls++ })

	d.Emit(Event{Type: "A"})
	unsubscribe()
	unsubscribe()
	d.Emit(Event{Type: "B"})

	assert.Equal(t, 1, calls)
}

func TestEmit_SubscriberPanicDoesNotStopOthers(t *testing.T) {
	d, _ := newDispatcher(t)
	calls := 0
	d.Subscribe(func(e Event) { panic("bad subscriber") })
	d.Subscribe(func(e Event) { calls++ })

	d.Emit(Event{Type: "A"})
	assert.Equal(t, 1, calls)
}
