package authgate

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/varkis-sec/authgate/internal/rate"
	"github.com/varkis-sec/authgate/password"
	"github.com/varkis-sec/authgate/token"
)

// Builder assembles an Engine. Configure it with the With* methods, then
// call Build once; a Builder is single-use and not safe for concurrent
// configuration.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  IdentityStore
	sink   AuditSink
	clock  func() time.Time

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration. The Builder keeps its own
// copy, so later mutation of cfg by the caller has no effect.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the identity store backing every lookup and write. Required.
func (b *Builder) WithStore(store IdentityStore) *Builder {
	b.store = store
	return b
}

// WithRedis supplies the client backing the login throttle. Optional: without
// it the engine runs with throttling disabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for audit events. Only consulted when
// AuditConfig.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithClock overrides the time source used for credential timestamps, reset
// expiry, and token claims. Leave unset outside of simulations; the default
// is time.Now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process metric counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Authenticate latency histogram. Implies
// nothing about counters; both switches are independent.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every component, and returns the
// ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("identity store required")
	}
	if cfg.Security.EnableIPThrottle && b.redis == nil {
		return nil, errors.New("IP throttle requires redis client")
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config: cfg,
		store:  b.store,
		now:    now,
	}

	hasher, err := password.New(password.Config{
		Cost: cfg.Password.Cost,
	})
	if err != nil {
		return nil, err
	}
	engine.hasher = hasher

	codec, err := token.NewCodec(token.Config{
		Secret:       cloneBytes(cfg.Token.Secret),
		Lifetime:     cfg.Token.Lifetime,
		Issuer:       cfg.Token.Issuer,
		Leeway:       cfg.Token.Leeway,
		MaxFutureIAT: cfg.Token.MaxFutureIAT,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}
	engine.codec = codec

	if b.redis != nil {
		engine.loginLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxAttempts:      cfg.Security.MaxLoginAttempts,
			Cooldown:         cfg.Security.LoginCooldown,
		})
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.sink)
	engine.metrics = NewMetrics(cfg.Metrics)

	// The throwaway digest gives unknown-email logins the same verification
	// cost as real ones. Hashing it here pins it to the configured cost.
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	engine.dummyHash = dummy

	b.built = true

	return engine, nil
}
