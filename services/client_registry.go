package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/provider"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/repository"
)

// Client is everything one browser tab owns on the server.
type Client struct {
	ID       string
	Session  *SessionService
	Cart     *Cart
	Checkout *CheckoutService
	Orders   *OrderService
	Catalog  *CatalogService

	startOnce sync.Once
	mu        sync.Mutex
	lastSeen  time.Time
}

func (c *Client) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *Client) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Client) close() {
	c.Checkout.Close()
	c.Session.Close()
}

type RegistryDeps struct {
	Stores            repository.StoreFactory
	API               *apiclient.Client
	NewProvider       func() provider.Provider
	Notifier          Notifier
	DeliveryPoints    []entity.DeliveryPoint
	SettleDelay       time.Duration
	ConfirmResetDelay time.Duration
	IdleTTL           time.Duration
	Now               func() time.Time
}

// Registry creates client containers on first use and evicts idle ones.
type Registry struct {
	deps RegistryDeps

	mu      sync.Mutex
	clients map[string]*Client
}

func NewRegistry(deps RegistryDeps) *Registry {
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Registry{deps: deps, clients: make(map[string]*Client)}
}

// Get returns the container for id, bootstrapping its session on first use.
func (r *Registry) Get(ctx context.Context, id string) *Client {
	r.mu.Lock()
	c, ok := r.clients[id]
	if !ok {
		c = r.build(id)
		r.clients[id] = c
	}
	r.mu.Unlock()

	c.touch(r.deps.Now())
	c.startOnce.Do(func() { c.Session.Start(ctx) })
	return c
}

// Lookup returns an existing container without creating one.
func (r *Registry) Lookup(id string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	return c, ok
}

// Drop tears a container down. Work still in flight for it is discarded.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	c, ok := r.clients[id]
	delete(r.clients, id)
	r.mu.Unlock()
	if ok {
		c.close()
		slog.Debug("client dropped", "client", id)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep drops the containers idle for longer than IdleTTL and reports how many.
func (r *Registry) Sweep() int {
	if r.deps.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.deps.Now().Add(-r.deps.IdleTTL)
	var stale []string
	r.mu.Lock()
	for id, c := range r.clients {
		if c.idleSince().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()
	for _, id := range stale {
		r.Drop(id)
	}
	return len(stale)
}

// Run sweeps periodically until ctx is done, then drops everything.
func (r *Registry) Run(ctx context.Context) {
	interval := r.deps.IdleTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			ids := make([]string, 0, len(r.clients))
			for id := range r.clients {
				ids = append(ids, id)
			}
			r.mu.Unlock()
			for _, id := range ids {
				r.Drop(id)
			}
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				slog.Info("evicted idle clients", "count", n)
			}
		}
	}
}

func (r *Registry) build(id string) *Client {
	notify := r.deps.Notifier
	session := NewSessionService(id, r.deps.Stores.For(id), r.deps.API, r.deps.NewProvider(), notify, r.deps.SettleDelay)
	cart := NewCart(func(lines []entity.CartLine) {
		notify.Publish(id, EventKindCart, lines)
	})
	checkout := NewCheckoutService(cart, session, session.API(), CheckoutOptions{
		Points:     r.deps.DeliveryPoints,
		ResetDelay: r.deps.ConfirmResetDelay,
		OnChange: func(snap CheckoutSnapshot) {
			notify.Publish(id, EventKindCheckout, snap)
		},
	})
	return &Client{
		ID:       id,
		Session:  session,
		Cart:     cart,
		Checkout: checkout,
		Orders:   NewOrderService(session, session.API()),
		Catalog:  NewCatalogService(session.API()),
	}
}
