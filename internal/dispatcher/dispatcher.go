// Package dispatcher es el bus de acciones: una acción se resuelve con su handler
// en el worker pool y el evento resultante se publica a los suscriptores.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/worker"
	"go.uber.org/zap"
)

var ErrUnknownAction = errors.New("unknown action type")

type ActionType string

type EventType string

// EventOrderStatusChanged lo emite el store de órdenes al detectar un cambio de estado.
const EventOrderStatusChanged EventType = "OrderStatusChanged"

// Action es lo que se despacha. Payload es el JSON propio de cada tipo.
type Action struct {
	Type        ActionType      `json:"type" validate:"required"`
	LocalSiteID int             `json:"local_site_id" validate:"gt=0"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Event es el cambio que ven los suscriptores. Error != nil si la operación falló.
type Event struct {
	Type         EventType     `json:"type"`
	LocalSiteID  int           `json:"local_site_id"`
	RowsAffected int           `json:"rows_affected"`
	Error        *woo.WooError `json:"error,omitempty"`
	Payload      any           `json:"payload,omitempty"`
	TraceID      string        `json:"trace_id,omitempty"`
}

func (e Event) IsError() bool {
	return e.Error != nil
}

type Handler func(ctx context.Context, action Action) Event

type Dispatcher struct {
	pool   *worker.WorkerPool
	logger *zap.Logger

	mu          sync.RWMutex
	handlers    map[ActionType]Handler
	subscribers map[int]func(Event)
	nextID      int
}

func New(pool *worker.WorkerPool, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		pool:        pool,
		logger:      logger,
		handlers:    make(map[ActionType]Handler),
		subscribers: make(map[int]func(Event)),
	}
}

// Register asocia un handler al tipo de acción; registrar dos veces reemplaza.
func (d *Dispatcher) Register(actionType ActionType, handler Handler) {
	d.mu.Lock()
	d.handlers[actionType] = handler
	d.mu.Unlock()
}

// Dispatch encola la acción y vuelve enseguida; el evento llega por Subscribe.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action) error {
	handler, err := d.handlerFor(action.Type)
	if err != nil {
		return err
	}

	// conserva trace id y campos de log, pero no la cancelación del request HTTP
	taskCtx := logging.WithAction(context.WithoutCancel(ctx), string(action.Type))
	return d.pool.Submit(func(poolCtx context.Context) {
		if poolCtx.Err() != nil {
			return
		}
		d.Emit(d.run(taskCtx, handler, action))
	})
}

// DispatchSync resuelve la acción en el goroutine actual, emite y devuelve el evento.
func (d *Dispatcher) DispatchSync(ctx context.Context, action Action) (Event, error) {
	handler, err := d.handlerFor(action.Type)
	if err != nil {
		return Event{}, err
	}
	event := d.run(logging.WithAction(ctx, string(action.Type)), handler, action)
	d.Emit(event)
	return event, nil
}

// Emit publica el evento a todos los suscriptores.
func (d *Dispatcher) Emit(event Event) {
	d.mu.RLock()
	subs := make([]func(Event), 0, len(d.subscribers))
	for _, fn := range d.subscribers {
		subs = append(subs, fn)
	}
	d.mu.RUnlock()

	for _, fn := range subs {
		d.notify(fn, event)
	}
}

// Subscribe registra fn y devuelve la función para desuscribirse.
func (d *Dispatcher) Subscribe(fn func(Event)) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subscribers[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subscribers, id)
			d.mu.Unlock()
		})
	}
}

func (d *Dispatcher) handlerFor(actionType ActionType) (Handler, error) {
	d.mu.RLock()
	handler, ok := d.handlers[actionType]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, actionType)
	}
	return handler, nil
}

func (d *Dispatcher) run(ctx context.Context, handler Handler, action Action) (event Event) {
	log := logging.FromContext(ctx, d.logger)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Action handler panicked", zap.Any("panic", r))
			event = Event{
				Type:        EventType("On" + string(action.Type)),
				LocalSiteID: action.LocalSiteID,
				Error:       woo.PersistenceError(fmt.Errorf("handler panic: %v", r)),
			}
		}
		if event.TraceID == "" {
			event.TraceID = logging.TraceID(ctx)
		}
	}()

	event = handler(ctx, action)
	if event.LocalSiteID == 0 {
		event.LocalSiteID = action.LocalSiteID
	}
	if event.IsError() {
		log.Warn("Action failed", zap.String("error_type", string(event.Error.Type)), zap.String("message", event.Error.Message))
	} else {
		log.Debug("Action completed", zap.String("event", string(event.Type)), zap.Int("rows_affected", event.RowsAffected))
	}
	return event
}

func (d *Dispatcher) notify(fn func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Event subscriber panicked", zap.String("event", string(event.Type)), zap.Any("panic", r))
		}
	}()
	fn(event)
}
