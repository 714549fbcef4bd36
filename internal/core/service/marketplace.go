package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const defaultPersistTimeout = 5 * time.Second

// Deps wires a Marketplace to its collaborators.
type Deps struct {
	Store       ports.SnapshotStore
	Idempotency ports.IdempotencyStore
	Events      ports.EventPublisher
	Executors   []ports.ExecutorSeed
	Limits      domain.Limits

	PersistTimeout time.Duration
	HashCost       int
	Clock          func() time.Time
	Logger         zerolog.Logger
}

// Marketplace owns clients, executors, orders and messages. Commands are
// serialized by mu; snapshots are written under saveMu so a slow store never
// blocks readers.
type Marketplace struct {
	mu             sync.RWMutex
	clients        map[string]*domain.Client
	clientsByEmail map[string]string
	executors      map[string]*domain.Executor
	executorOrder  []string
	orders         map[string]*domain.Order
	messages       map[string][]*domain.Message
	version        int64

	saveMu       sync.Mutex
	savedVersion int64

	// creating collapses concurrent creations sharing an idempotency key.
	creating singleflight.Group

	store          ports.SnapshotStore
	idem           ports.IdempotencyStore
	events         ports.EventPublisher
	limits         domain.Limits
	persistTimeout time.Duration
	hashCost       int
	clock          func() time.Time
	log            zerolog.Logger
}

var _ ports.MarketplaceService = (*Marketplace)(nil)

// NewMarketplace loads the last snapshot and provisions the executor pool.
// A store reporting ports.ErrNoSnapshot is treated as a first run.
func NewMarketplace(ctx context.Context, deps Deps) (*Marketplace, error) {
	m := &Marketplace{
		clients:        make(map[string]*domain.Client),
		clientsByEmail: make(map[string]string),
		executors:      make(map[string]*domain.Executor),
		orders:         make(map[string]*domain.Order),
		messages:       make(map[string][]*domain.Message),
		store:          deps.Store,
		idem:           deps.Idempotency,
		events:         deps.Events,
		limits:         deps.Limits,
		persistTimeout: deps.PersistTimeout,
		hashCost:       deps.HashCost,
		clock:          deps.Clock,
		log:            deps.Logger,
	}
	if m.limits == (domain.Limits{}) {
		m.limits = domain.DefaultLimits()
	}
	if m.persistTimeout <= 0 {
		m.persistTimeout = defaultPersistTimeout
	}
	if m.hashCost == 0 {
		m.hashCost = bcrypt.DefaultCost
	}
	if m.clock == nil {
		m.clock = time.Now
	}

	if m.store != nil {
		snap, err := m.store.Load(ctx)
		switch {
		case errors.Is(err, ports.ErrNoSnapshot):
			m.log.Info().Msg("no snapshot found, starting empty")
		case err != nil:
			return nil, fmt.Errorf("load snapshot: %w", err)
		default:
			m.restore(snap)
			m.savedVersion = snap.Version
			m.log.Info().
				Int64("version", snap.Version).
				Int("clients", len(m.clients)).
				Int("orders", len(m.orders)).
				Msg("snapshot loaded")
		}
	}

	provisioned, err := m.provisionExecutors(deps.Executors)
	if err != nil {
		return nil, err
	}
	if provisioned > 0 {
		m.version++
		snap := m.snapshotLocked()
		if err := m.persist(ctx, snap); err != nil {
			m.log.Warn().Err(err).Msg("executor pool not persisted yet")
		}
	}
	return m, nil
}

// restore replaces in-memory state with snap. Callers hold mu or own m exclusively.
func (m *Marketplace) restore(snap *domain.Snapshot) {
	snap.Normalize()
	m.clients = make(map[string]*domain.Client, len(snap.Clients))
	m.clientsByEmail = make(map[string]string, len(snap.Clients))
	m.executors = make(map[string]*domain.Executor, len(snap.Executors))
	m.executorOrder = m.executorOrder[:0]
	m.orders = make(map[string]*domain.Order, len(snap.Orders))
	m.messages = make(map[string][]*domain.Message, len(snap.Messages))

	for _, c := range snap.Clients {
		cc := *c
		m.clients[cc.ID] = &cc
		m.clientsByEmail[domain.NormalizeEmail(cc.Email)] = cc.ID
	}
	for _, e := range snap.Executors {
		ec := *e
		m.executors[ec.ID] = &ec
		m.executorOrder = append(m.executorOrder, ec.ID)
	}
	for _, o := range snap.Orders {
		m.orders[o.ID] = o.Clone()
	}
	for orderID, msgs := range snap.Messages {
		if _, ok := m.orders[orderID]; !ok {
			continue
		}
		cp := make([]*domain.Message, len(msgs))
		for i, msg := range msgs {
			cp[i] = msg.Clone()
		}
		sort.SliceStable(cp, func(i, j int) bool { return cp[i].Timestamp.Before(cp[j].Timestamp) })
		m.messages[orderID] = cp
	}
	m.version = snap.Version
}

func (m *Marketplace) provisionExecutors(seeds []ports.ExecutorSeed) (int, error) {
	added := 0
	for _, seed := range seeds {
		if seed.ID == "" || seed.Name == "" {
			return added, fmt.Errorf("executor seed needs id and name")
		}
		if _, ok := m.executors[seed.ID]; ok {
			continue
		}
		hash, err := hashPassword(seed.Password, m.hashCost)
		if err != nil {
			return added, fmt.Errorf("hash executor %s password: %w", seed.ID, err)
		}
		m.executors[seed.ID] = &domain.Executor{
			ID:           seed.ID,
			Name:         seed.Name,
			PasswordHash: string(hash),
			Avatar:       domain.AvatarInitial(seed.Name),
			Position:     seed.Position,
		}
		m.executorOrder = append(m.executorOrder, seed.ID)
		m.log.Info().Str("executor_id", seed.ID).Msg("executor provisioned")
		added++
	}
	return added, nil
}

// now returns the marketplace clock in UTC at millisecond precision.
func (m *Marketplace) now() time.Time {
	return m.clock().UTC().Truncate(time.Millisecond)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// commitLocked bumps the version and captures the state to persist. Caller holds mu.
func (m *Marketplace) commitLocked() *domain.Snapshot {
	m.version++
	return m.snapshotLocked()
}

func (m *Marketplace) snapshotLocked() *domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.Version = m.version
	snap.SavedAt = m.now()

	for _, c := range m.clients {
		cc := *c
		snap.Clients = append(snap.Clients, &cc)
	}
	sort.Slice(snap.Clients, func(i, j int) bool {
		a, b := snap.Clients[i], snap.Clients[j]
		if a.RegisteredAt.Equal(b.RegisteredAt) {
			return a.ID < b.ID
		}
		return a.RegisteredAt.Before(b.RegisteredAt)
	})
	for _, id := range m.executorOrder {
		ec := *m.executors[id]
		snap.Executors = append(snap.Executors, &ec)
	}
	for _, o := range m.orders {
		snap.Orders = append(snap.Orders, o.Clone())
	}
	sortOrdersAsc(snap.Orders)
	for orderID, msgs := range m.messages {
		cp := make([]*domain.Message, len(msgs))
		for i, msg := range msgs {
			cp[i] = msg.Clone()
		}
		snap.Messages[orderID] = cp
	}
	return snap
}

// persist saves snap unless a newer version already reached the store. The
// in-memory mutation is never rolled back; failures are reported as
// persistence-kind errors.
func (m *Marketplace) persist(ctx context.Context, snap *domain.Snapshot) error {
	if m.store == nil {
		return nil
	}
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	if snap.Version <= m.savedVersion {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.persistTimeout)
	defer cancel()
	if err := m.store.Save(ctx, snap); err != nil {
		m.log.Warn().Err(err).Int64("version", snap.Version).Msg("snapshot save failed")
		if errors.Is(err, domain.ErrSyncPending) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	m.savedVersion = snap.Version
	return nil
}

// Flush saves the current state if a previous save failed or was skipped.
func (m *Marketplace) Flush(ctx context.Context) error {
	if !m.SyncPending() {
		return nil
	}
	m.mu.RLock()
	snap := m.snapshotLocked()
	m.mu.RUnlock()
	return m.persist(ctx, snap)
}

// SyncPending reports whether the in-memory state is ahead of the store.
func (m *Marketplace) SyncPending() bool {
	if m.store == nil {
		return false
	}
	m.mu.RLock()
	v := m.version
	m.mu.RUnlock()
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	return v > m.savedVersion
}

// Export returns a deep copy of the current state.
func (m *Marketplace) Export(_ context.Context) *domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Import replaces the whole state with snap and persists it under a version
// newer than anything seen so far. Executors missing from snap are kept.
func (m *Marketplace) Import(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("import: empty snapshot")
	}
	in := snap.Clone()
	in.Normalize()
	for _, o := range in.Orders {
		if o.ID == "" || o.ClientID == "" {
			return fmt.Errorf("import: order without id or client")
		}
		if _, ok := domain.ParseOrderStatus(string(o.Status)); !ok {
			return fmt.Errorf("import: order %s has unknown status %q", o.ID, o.Status)
		}
	}

	m.mu.Lock()
	kept := make([]*domain.Executor, 0, len(m.executorOrder))
	for _, id := range m.executorOrder {
		kept = append(kept, m.executors[id])
	}
	next := m.version
	if in.Version > next {
		next = in.Version
	}
	m.restore(in)
	for _, e := range kept {
		if _, ok := m.executors[e.ID]; !ok {
			m.executors[e.ID] = e
			m.executorOrder = append(m.executorOrder, e.ID)
		}
	}
	m.version = next
	out := m.commitLocked()
	m.mu.Unlock()

	m.log.Info().Int64("version", out.Version).Int("orders", len(out.Orders)).Msg("snapshot imported")
	return m.persist(ctx, out)
}

func (m *Marketplace) publish(ev domain.OrderEvent) {
	if m.events == nil {
		return
	}
	m.events.Publish(ev)
}

// appendMessageLocked adds a message to an order keeping timestamps strictly
// increasing. Caller holds mu.
func (m *Marketplace) appendMessageLocked(o *domain.Order, senderID string, role domain.Role, text string) *domain.Message {
	ts := m.now()
	msgs := m.messages[o.ID]
	if n := len(msgs); n > 0 && !ts.After(msgs[n-1].Timestamp) {
		ts = msgs[n-1].Timestamp.Add(time.Millisecond)
	}
	msg := &domain.Message{
		ID:         newID(),
		OrderID:    o.ID,
		SenderID:   senderID,
		SenderRole: role,
		Text:       text,
		Timestamp:  ts,
	}
	m.messages[o.ID] = append(msgs, msg)
	o.MessageCount++
	o.LastMessageAt = &ts
	return msg
}

func (m *Marketplace) systemMessageLocked(o *domain.Order, text string) *domain.Message {
	return m.appendMessageLocked(o, domain.SystemSenderID, domain.RoleSystem, text)
}

func sortOrdersAsc(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func sortOrdersDesc(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
