// Package events is the application's publish/subscribe facade.
//
// Delivery is synchronous: Publish calls every matching handler, in
// subscription order, before it returns. A panicking handler is logged and
// does not stop delivery to the others.
package events

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/apphost/internal/di"
	"github.com/dshills/apphost/internal/logging"
)

// Sentinel errors.
var (
	ErrInvalidTopic = errors.New("invalid topic")
	ErrNilHandler   = errors.New("handler cannot be nil")
)

// Container keys. AggregatorKey resolves the concrete *Aggregator;
// ChannelKey resolves whatever value publishes and subscribes on its behalf,
// which for a composed application is the application itself.
var (
	AggregatorKey = di.KeyOf[*Aggregator]()
	ChannelKey    = di.KeyOf[Channel]()
)

// Channel is the publish/subscribe surface of an Aggregator, and of any
// type embedding one.
type Channel interface {
	Subscribe(pattern Topic, fn Handler) (*Subscription, error)
	SubscribeOnce(pattern Topic, fn Handler) (*Subscription, error)
	Publish(topic Topic, payload any) (int, error)
}

var _ Channel = (*Aggregator)(nil)

// Event is a published message.
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// Handler receives events.
type Handler func(e Event)

// Aggregator routes published events to subscribers. The zero value is not
// usable; call New.
type Aggregator struct {
	mu     sync.RWMutex
	subs   []*Subscription
	logger *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger used to report handler panics.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// New creates an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.Named(a.logger, "events")
	return a
}

// Subscribe registers fn for every topic matching pattern.
func (a *Aggregator) Subscribe(pattern Topic, fn Handler) (*Subscription, error) {
	return a.subscribe(pattern, fn, false)
}

// SubscribeOnce is Subscribe, disposed after the first delivery.
func (a *Aggregator) SubscribeOnce(pattern Topic, fn Handler) (*Subscription, error) {
	return a.subscribe(pattern, fn, true)
}

func (a *Aggregator) subscribe(pattern Topic, fn Handler, once bool) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	if fn == nil {
		return nil, ErrNilHandler
	}

	s := &Subscription{
		id:         uuid.NewString(),
		pattern:    pattern,
		handler:    fn,
		once:       once,
		aggregator: a,
	}

	a.mu.Lock()
	a.subs = append(a.subs, s)
	a.mu.Unlock()
	return s, nil
}

// Publish delivers payload to every subscriber whose pattern matches topic
// and returns the number of handlers called. The topic itself must not
// contain wildcards.
func (a *Aggregator) Publish(topic Topic, payload any) (int, error) {
	if !topic.IsValid() || topic.IsPattern() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	a.mu.RLock()
	matched := make([]*Subscription, 0, len(a.subs))
	for _, s := range a.subs {
		if topic.Matches(s.pattern) {
			matched = append(matched, s)
		}
	}
	a.mu.RUnlock()

	e := Event{Topic: topic, Payload: payload, Timestamp: time.Now()}
	delivered := 0
	for _, s := range matched {
		if s.deliver(e) {
			delivered++
		}
	}
	return delivered, nil
}

// Len returns the number of live subscriptions.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.subs)
}

func (a *Aggregator) remove(s *Subscription) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, sub := range a.subs {
		if sub == s {
			a.subs = append(a.subs[:i], a.subs[i+1:]...)
			return
		}
	}
}

// Subscription is a registered handler.
type Subscription struct {
	id         string
	pattern    Topic
	handler    Handler
	once       bool
	disposed   atomic.Bool
	aggregator *Aggregator
}

// ID returns the subscription's unique id.
func (s *Subscription) ID() string { return s.id }

// Pattern returns the subscribed pattern.
func (s *Subscription) Pattern() Topic { return s.pattern }

// Disposed reports whether the subscription has been disposed.
func (s *Subscription) Disposed() bool { return s.disposed.Load() }

// Dispose removes the subscription. It is safe to call more than once.
func (s *Subscription) Dispose() {
	if s.disposed.CompareAndSwap(false, true) {
		s.aggregator.remove(s)
	}
}

// deliver reports whether the handler was called, including calls that
// panicked.
func (s *Subscription) deliver(e Event) (called bool) {
	if s.once {
		if !s.disposed.CompareAndSwap(false, true) {
			return false
		}
		s.aggregator.remove(s)
	} else if s.disposed.Load() {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			s.aggregator.logger.Error("event handler panicked",
				zap.String("subscription", s.id),
				zap.Stringer("topic", e.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	called = true
	s.handler(e)
	return called
}
