package identity

import (
	"context"
	"sync"

	"cohort-portal-service/internal/domain"
)

// Verifier turns an ID token into an identity.
type Verifier interface {
	Verify(token string) (domain.Identity, error)
}

// Provider holds the signed-in identity of one client and notifies listeners
// on every change. Listeners are called synchronously, in registration order,
// and must not call back into the provider.
type Provider struct {
	verifier Verifier

	// notifyMu serializes change+notify so listeners observe changes in order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	current   *domain.Identity
	nextID    int
	listeners map[int]func(*domain.Identity)
	order     []int
}

func NewProvider(verifier Verifier) *Provider {
	return &Provider{
		verifier:  verifier,
		listeners: make(map[int]func(*domain.Identity)),
	}
}

// SignIn verifies idToken and makes it the current identity.
// A rejected token leaves the current identity untouched.
func (p *Provider) SignIn(_ context.Context, idToken string) (domain.Identity, error) {
	id, err := p.verifier.Verify(idToken)
	if err != nil {
		return domain.Identity{}, err
	}
	p.set(&id)
	return id, nil
}

// SignOut clears the current identity.
func (p *Provider) SignOut(_ context.Context) error {
	p.set(nil)
	return nil
}

// Current returns a copy of the signed-in identity, or nil.
func (p *Provider) Current() *domain.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyIdentity(p.current)
}

// OnIdentityChange registers fn and immediately calls it with the current
// identity (nil when signed out). The returned func unregisters fn.
func (p *Provider) OnIdentityChange(fn func(*domain.Identity)) func() {
	p.notifyMu.Lock()
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.order = append(p.order, id)
	current := copyIdentity(p.current)
	p.mu.Unlock()
	fn(current)
	p.notifyMu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.listeners[id]; !ok {
			return
		}
		delete(p.listeners, id)
		for i, existing := range p.order {
			if existing == id {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	}
}

func (p *Provider) set(id *domain.Identity) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	p.current = copyIdentity(id)
	fns := make([]func(*domain.Identity), 0, len(p.order))
	for _, lid := range p.order {
		fns = append(fns, p.listeners[lid])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(copyIdentity(id))
	}
}

func copyIdentity(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
