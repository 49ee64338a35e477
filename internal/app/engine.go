// Package service provides the settlement engine that implements the
// dependencies required by the HTTP API. Every externally visible operation
// is applied as one atomic step against shared state: a single mutex
// serializes all calls, and internal state is mutated before any external
// transfer is invoked.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/events"
	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/exchange"
	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/repository"
	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/token"
	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/verify"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/clock"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/credit"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/lifecycle"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/oracle"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/payments"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	"github.com/dev-tnsq/spacelink-sub000/pkg/logger"
	"github.com/dev-tnsq/spacelink-sub000/pkg/metrics"
)

// Internal identities holding value on the ledger.
const (
	EscrowIdentity     types.Identity = "spacelink.escrow"
	TreasuryIdentity   types.Identity = "spacelink.treasury"
	RewardPoolIdentity types.Identity = "spacelink.rewards"

	defaultAdmin types.Identity = "spacelink.admin"
)

// Default engine configuration constants.
const (
	defaultNativeCurrency    = types.Currency("XLM")
	defaultMinStationStake   = types.UnitScale // 1.0 native
	defaultMinSatelliteStake = types.UnitScale // 1.0 native
	defaultRelayReward       = types.UnitScale // 1.0 native per verified pass
	defaultElementMaxAge     = 7 * 24 * time.Hour
	defaultLockWindow        = 30 * time.Minute
	defaultMinPassDuration   = 5 * time.Minute
	defaultMaxPassDuration   = 10 * time.Minute
	defaultExchangeSpreadBps = 30
)

// Engine is the serialized settlement engine. All exported methods take the
// single mutex; no two operations interleave their effects.
type Engine struct {
	mu sync.Mutex

	// Core components
	store    repository.Store
	oracle   *oracle.Aggregator
	router   *payments.Router
	credit   *credit.Engine
	tokens   token.Registry
	verifier verify.Verifier
	bus      *events.Bus
	clock    clock.Clock

	// Configuration
	admin             types.Identity
	native            types.Currency
	currencies        []types.Currency
	minStationStake   int64
	minSatelliteStake int64
	relayReward       int64
	elementMaxAge     time.Duration
	lockWindow        time.Duration
	minPassDuration   time.Duration
	maxPassDuration   time.Duration

	// State
	paused  bool
	pending map[types.PassID]verify.Request
	started bool

	log logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithStore sets the backing store.
func WithStore(s repository.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// WithOracle sets the price oracle aggregator.
func WithOracle(o *oracle.Aggregator) Option {
	return func(e *Engine) {
		if o != nil {
			e.oracle = o
		}
	}
}

// WithRouter sets the payment router.
func WithRouter(r *payments.Router) Option {
	return func(e *Engine) {
		if r != nil {
			e.router = r
		}
	}
}

// WithCredit sets the credit engine.
func WithCredit(c *credit.Engine) Option {
	return func(e *Engine) {
		if c != nil {
			e.credit = c
		}
	}
}

// WithTokenRegistry sets the external pass-ownership registry.
func WithTokenRegistry(t token.Registry) Option {
	return func(e *Engine) {
		if t != nil {
			e.tokens = t
		}
	}
}

// WithVerifier sets the verification oracle integration.
func WithVerifier(v verify.Verifier) Option {
	return func(e *Engine) {
		if v != nil {
			e.verifier = v
		}
	}
}

// WithBus sets the outbound event bus.
func WithBus(b *events.Bus) Option {
	return func(e *Engine) {
		if b != nil {
			e.bus = b
		}
	}
}

// WithClock sets the external clock used for every lazy time check.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithAdmin sets the administrative identity.
func WithAdmin(id types.Identity) Option {
	return func(e *Engine) {
		if id != "" {
			e.admin = id
		}
	}
}

// WithNativeCurrency sets the native settlement currency.
func WithNativeCurrency(c types.Currency) Option {
	return func(e *Engine) {
		if c != "" {
			e.native = c
		}
	}
}

// WithCurrencies registers additional supported currencies.
func WithCurrencies(currencies ...types.Currency) Option {
	return func(e *Engine) {
		e.currencies = append(e.currencies, currencies...)
	}
}

// WithMinStakes sets the minimum registration stakes in base units.
func WithMinStakes(station, satellite int64) Option {
	return func(e *Engine) {
		if station > 0 {
			e.minStationStake = station
		}
		if satellite > 0 {
			e.minSatelliteStake = satellite
		}
	}
}

// WithRelayReward sets the fixed per-pass reward in base units.
func WithRelayReward(reward int64) Option {
	return func(e *Engine) {
		if reward > 0 {
			e.relayReward = reward
		}
	}
}

// WithElementMaxAge sets the element-set freshness window for booking.
func WithElementMaxAge(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.elementMaxAge = d
		}
	}
}

// WithLockWindow sets how long before the scheduled start a pass auto-locks.
func WithLockWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.lockWindow = d
		}
	}
}

// WithPassDurationBounds sets the allowed pass duration range.
func WithPassDurationBounds(min, max time.Duration) Option {
	return func(e *Engine) {
		if min > 0 && max > min {
			e.minPassDuration = min
			e.maxPassDuration = max
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New constructs a new Engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		admin:             defaultAdmin,
		native:            defaultNativeCurrency,
		minStationStake:   defaultMinStationStake,
		minSatelliteStake: defaultMinSatelliteStake,
		relayReward:       defaultRelayReward,
		elementMaxAge:     defaultElementMaxAge,
		lockWindow:        defaultLockWindow,
		minPassDuration:   defaultMinPassDuration,
		maxPassDuration:   defaultMaxPassDuration,
		pending:           make(map[types.PassID]verify.Request),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start wires up any components not supplied via options.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	if e.log == nil {
		if err := logger.Init(); err != nil {
			return err
		}
		e.log = logger.Named("engine")
	}
	if e.clock == nil {
		e.clock = clock.System{}
	}
	if e.store == nil {
		e.store = repository.NewMemory()
	}
	if e.oracle == nil {
		e.oracle = oracle.New()
	}
	if e.router == nil {
		venue := exchange.NewMemory(e.oracle, e.clock, defaultExchangeSpreadBps)
		e.router = payments.New(e.native, e.oracle, venue, payments.WithCurrencies(e.currencies...))
	}
	if e.credit == nil {
		e.credit = credit.New(e.store, e.store)
	}
	if e.tokens == nil {
		e.tokens = token.NewMemory()
	}
	if e.verifier == nil {
		e.verifier = verify.Static{Answer: verify.Confirmed}
	}
	if e.bus == nil {
		e.bus = events.NewBus()
	}

	e.started = true
	e.log.Info(ctx, "settlement engine started",
		logger.String("native", string(e.native)),
		logger.Int64("minStationStake", e.minStationStake),
		logger.Int64("relayReward", e.relayReward),
		logger.Duration("lockWindow", e.lockWindow),
	)

	return nil
}

// Stop shuts the engine down and closes the event bus.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return
	}
	if e.bus != nil {
		e.bus.Close()
	}
	e.started = false
	e.log.Info(context.Background(), "settlement engine stopped")
}

// Subscribe returns a live event channel and its cancel function.
func (e *Engine) Subscribe() (<-chan model.Event, func()) {
	return e.bus.Subscribe()
}

// Native returns the engine's native settlement currency.
func (e *Engine) Native() types.Currency { return e.native }

// emit publishes one typed event stamped with the current clock reading.
// Callers hold the engine mutex.
func (e *Engine) emit(kind model.EventKind, payload any) {
	e.bus.Publish(model.Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		At:      e.clock.Now(),
		Payload: payload,
	})
}

// effectiveState materializes the lazy auto-lock for p at now and returns
// the effective state. Callers hold the engine mutex.
func (e *Engine) effectiveState(p *model.Pass, now time.Time) string {
	eff := lifecycle.Effective(p.State, p.Start, now, e.lockWindow)
	if eff != p.State {
		from := p.State
		p.State = eff
		e.emit(model.EventPassStateChanged, model.PassStateChangedPayload{
			PassID: p.ID, From: from, To: eff,
		})
	}
	return p.State
}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	Stations             int    `json:"stations"`
	Satellites           int    `json:"satellites"`
	Passes               int    `json:"passes"`
	Loans                int    `json:"loans"`
	PendingVerifications int    `json:"pending_verifications"`
	QuotesAccepted       uint64 `json:"quotes_accepted"`
	QuotesRejected       uint64 `json:"quotes_rejected"`
	EventsPublished      uint64 `json:"events_published"`
	EventsDropped        uint64 `json:"events_dropped"`
	RewardPool           int64  `json:"reward_pool"`
	Paused               bool   `json:"paused"`
}

// Stats reports engine-wide counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	accepted, rejected := e.oracle.Stats()
	published, dropped := e.bus.Stats()
	return Stats{
		Stations:             len(e.store.Stations()),
		Satellites:           len(e.store.Satellites()),
		Passes:               len(e.store.Passes()),
		Loans:                len(e.store.Loans()),
		PendingVerifications: len(e.pending),
		QuotesAccepted:       accepted,
		QuotesRejected:       rejected,
		EventsPublished:      published,
		EventsDropped:        dropped,
		RewardPool:           e.router.Balance(e.native, RewardPoolIdentity),
		Paused:               e.paused,
	}
}

// Pause stops all payment-moving operations. Admin only.
func (e *Engine) Pause(caller types.Identity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return notAuthorized(caller, "pause")
	}
	e.paused = true
	e.log.Warn(context.Background(), "engine paused", logger.String("by", string(caller)))
	return nil
}

// Resume lifts a pause. Admin only.
func (e *Engine) Resume(caller types.Identity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return notAuthorized(caller, "resume")
	}
	e.paused = false
	e.log.Info(context.Background(), "engine resumed", logger.String("by", string(caller)))
	return nil
}

// Paused reports whether payment-moving operations are suspended.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// syncGauges refreshes the registry gauges after registry mutations.
// Callers hold the engine mutex.
func (e *Engine) syncGauges() {
	activeStations := 0
	for _, s := range e.store.Stations() {
		if s.Active {
			activeStations++
		}
	}
	activeSatellites := 0
	for _, s := range e.store.Satellites() {
		if s.Active {
			activeSatellites++
		}
	}
	metrics.UpdateActiveStations(activeStations)
	metrics.UpdateActiveSatellites(activeSatellites)
	metrics.UpdateRewardPool(e.router.Balance(e.native, RewardPoolIdentity))
}
