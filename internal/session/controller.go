// Package session holds the signed-in user and role of one client and
// notifies subscribers whenever the identity behind it changes.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"cohort-portal-service/internal/domain"
)

// NoticeLookupFailed is shown when an identity could not be resolved to a profile.
const NoticeLookupFailed = "We couldn't load your profile. Please sign in again."

// State is an immutable snapshot of the session.
type State struct {
	CurrentUser *domain.UserProfile `json:"currentUser"`
	Role        domain.Role         `json:"role,omitempty"`
	Loading     bool                `json:"loading"`
	Notice      string              `json:"notice,omitempty"`
}

// Initial is the state before the first identity has been resolved.
func Initial() State {
	return State{Loading: true}
}

// Resolved builds a settled state for profile; nil means signed out.
func Resolved(profile *domain.UserProfile) State {
	if profile == nil {
		return State{}
	}
	p := *profile
	return State{CurrentUser: &p, Role: p.Role}
}

// SignedIn reports whether a user is present.
func (s State) SignedIn() bool {
	return s.CurrentUser != nil
}

// Resolver turns an identity into a profile. A nil identity resolves to nil.
type Resolver interface {
	Resolve(ctx context.Context, id *domain.Identity) (*domain.UserProfile, error)
}

// IdentitySource is the subscription side of an identity provider.
type IdentitySource interface {
	OnIdentityChange(fn func(*domain.Identity)) func()
}

// Controller owns the State of one client. It is written only by its event
// loop, which resolves identity changes one at a time in arrival order.
type Controller struct {
	resolver Resolver
	logger   *zap.Logger

	events chan *domain.Identity
	quit   chan struct{}
	done   chan struct{}
	ready  chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	readyOnce sync.Once

	mu          sync.RWMutex
	running     bool
	closed      bool
	state       State
	subscribers map[chan State]struct{}
	detach      []func()
}

func NewController(resolver Resolver, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		resolver:    resolver,
		logger:      logger,
		events:      make(chan *domain.Identity, 16),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		ready:       make(chan struct{}),
		state:       Initial(),
		subscribers: make(map[chan State]struct{}),
	}
}

// Start runs the event loop until ctx is done or Close is called.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.mu.Lock()
		c.running = true
		c.mu.Unlock()
		go c.run(ctx)
	})
}

// Close detaches from every identity source, stops the loop and closes all
// subscriber channels. It is safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		detach := c.detach
		c.detach = nil
		c.mu.Unlock()
		for _, fn := range detach {
			fn()
		}

		close(c.quit)
		c.startOnce.Do(func() {})
		c.mu.RLock()
		running := c.running
		c.mu.RUnlock()
		if running {
			<-c.done
		}

		c.mu.Lock()
		c.closed = true
		for ch := range c.subscribers {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	})
}

// Attach subscribes the controller to src. The source fires immediately with
// its current identity, which becomes the first event.
func (c *Controller) Attach(src IdentitySource) {
	cancel := src.OnIdentityChange(c.enqueue)
	c.mu.Lock()
	c.detach = append(c.detach, cancel)
	c.mu.Unlock()
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Ready is closed once the first identity event has been resolved.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Subscribe returns a channel that receives the current state immediately and
// every later state. Slow readers only see the latest state. The caller must
// invoke cancel. After Close the channel comes back already closed.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 4)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	ch <- c.state
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) enqueue(id *domain.Identity) {
	select {
	case c.events <- id:
	case <-c.quit:
	}
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.quit:
			return
		case id := <-c.events:
			c.apply(c.resolve(ctx, id))
		}
	}
}

func (c *Controller) resolve(ctx context.Context, id *domain.Identity) State {
	profile, err := c.resolver.Resolve(ctx, id)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if id != nil {
			fields = append(fields, zap.String("user_id", id.UserID))
		}
		c.logger.Warn("resolve identity", fields...)
		return State{Notice: NoticeLookupFailed}
	}
	return Resolved(profile)
}

func (c *Controller) apply(next State) {
	c.mu.Lock()
	c.state = next
	c.broadcastLocked()
	c.mu.Unlock()
	c.readyOnce.Do(func() { close(c.ready) })
}

func (c *Controller) broadcastLocked() {
	for ch := range c.subscribers {
		select {
		case ch <- c.state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- c.state
		}
	}
}
