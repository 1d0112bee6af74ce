// Package registry maps provider names to adapter constructors.
//
// The registry is filled explicitly at startup; nothing registers itself.
// Names are case-insensitive and kept in registration order.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	apperrors "github.com/wekeepgrowing/paygate/pkg/errors"
)

// FallbackProvider is used when no default is configured.
const FallbackProvider = "stripe"

// ErrUnknownProvider matches every *UnknownProviderError via errors.Is.
var ErrUnknownProvider = errors.New("unknown payment provider")

// Constructor builds a fresh adapter instance.
type Constructor func() provider.PaymentProvider

// UnknownProviderError is returned for names that were never registered.
type UnknownProviderError struct {
	Name      string
	Available []string
	// Hint adds registration guidance to the message.
	Hint bool
}

func (e *UnknownProviderError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	if !e.Hint {
		return fmt.Sprintf("Unknown payment provider: %s. Available: %s", e.Name, available)
	}
	return fmt.Sprintf(
		"Unknown payment provider: %s. Available providers: %s. "+
			"Make sure the %s adapter is registered at startup (registry.Register(%q, ...))",
		e.Name, available, e.Name, e.Name)
}

func (e *UnknownProviderError) Is(target error) bool { return target == ErrUnknownProvider }

// Code maps the error to NOT_FOUND for HTTP responses.
func (e *UnknownProviderError) Code() string { return apperrors.ErrNotFound }

type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	order        []string
	defaultName  string
	logger       *zap.Logger

	defaultMu       sync.Mutex
	defaultInstance provider.PaymentProvider
}

type Option func(*Registry)

// WithDefaultProvider sets the name Get("") resolves to.
func WithDefaultProvider(name string) Option {
	return func(r *Registry) {
		if name = normalize(name); name != "" {
			r.defaultName = name
		}
	}
}

func New(logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		constructors: make(map[string]Constructor),
		defaultName:  FallbackProvider,
		logger:       logger.Named("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds or replaces a constructor. A replaced name keeps its
// original position in ListProviders.
func (r *Registry) Register(name string, ctor Constructor) {
	name = normalize(name)
	if name == "" || ctor == nil {
		r.logger.Warn("Ignoring invalid provider registration", zap.String("provider", name))
		return
	}

	r.mu.Lock()
	_, replaced := r.constructors[name]
	r.constructors[name] = ctor
	if !replaced {
		r.order = append(r.order, name)
	}
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("Replaced payment provider", zap.String("provider", name))
		r.resetDefault(name)
		return
	}
	r.logger.Debug("Registered payment provider", zap.String("provider", name))
}

// Unregister is a no-op for unknown names.
func (r *Registry) Unregister(name string) {
	name = normalize(name)

	r.mu.Lock()
	_, ok := r.constructors[name]
	if ok {
		delete(r.constructors, name)
		r.order = lo.Without(r.order, name)
	}
	r.mu.Unlock()

	if ok {
		r.logger.Debug("Unregistered payment provider", zap.String("provider", name))
		r.resetDefault(name)
	}
}

// Get builds a new adapter instance. An empty name selects the default.
func (r *Registry) Get(name string) (provider.PaymentProvider, error) {
	name = normalize(name)
	if name == "" {
		name = r.DefaultName()
	}

	ctor, err := r.lookup(name, true)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Using payment provider", zap.String("provider", name))
	return ctor(), nil
}

// GetConstructor returns the constructor without building an instance.
func (r *Registry) GetConstructor(name string) (Constructor, error) {
	return r.lookup(normalize(name), false)
}

func (r *Registry) lookup(name string, hint bool) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctor, ok := r.constructors[name]
	if !ok {
		return nil, &UnknownProviderError{
			Name:      name,
			Available: append([]string(nil), r.order...),
			Hint:      hint,
		}
	}
	return ctor, nil
}

// ListProviders returns registered names in registration order.
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[normalize(name)]
	return ok
}

// Clear removes every registration. Meant for tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.constructors = make(map[string]Constructor)
	r.order = nil
	r.mu.Unlock()

	r.defaultMu.Lock()
	r.defaultInstance = nil
	r.defaultMu.Unlock()
}

// DefaultName is the configured default provider name.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Default returns one shared instance of the default provider, built on
// first use. Construction errors are not cached.
func (r *Registry) Default() (provider.PaymentProvider, error) {
	r.defaultMu.Lock()
	defer r.defaultMu.Unlock()

	if r.defaultInstance != nil {
		return r.defaultInstance, nil
	}

	p, err := r.Get("")
	if err != nil {
		return nil, err
	}
	r.defaultInstance = p
	return p, nil
}

func (r *Registry) resetDefault(name string) {
	if name != r.defaultName {
		return
	}
	r.defaultMu.Lock()
	r.defaultInstance = nil
	r.defaultMu.Unlock()
}
