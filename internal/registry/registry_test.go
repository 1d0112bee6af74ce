package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/provider/providertest"
	apperrors "github.com/wekeepgrowing/paygate/pkg/errors"
)

func mockCtor(name string) Constructor {
	return func() provider.PaymentProvider { return providertest.NewMockProvider(name) }
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New(zap.NewNop())
	r.Register("Stripe", mockCtor("stripe"))
	r.Register("toss", mockCtor("toss"))

	t.Run("case insensitive lookup", func(t *testing.T) {
		for _, name := range []string{"stripe", "STRIPE", "Stripe"} {
			p, err := r.Get(name)
			require.NoError(t, err)
			assert.Equal(t, "stripe", p.Name())
			assert.True(t, r.IsRegistered(name))
		}
	})

	t.Run("fresh instance per call", func(t *testing.T) {
		a, err := r.Get("toss")
		require.NoError(t, err)
		b, err := r.Get("toss")
		require.NoError(t, err)
		assert.NotSame(t, a, b)
	})

	t.Run("registration order", func(t *testing.T) {
		assert.Equal(t, []string{"stripe", "toss"}, r.ListProviders())
	})
}

func TestRegistry_ReplaceKeepsPosition(t *testing.T) {
	r := New(zap.NewNop())
	r.Register("stripe", mockCtor("first"))
	r.Register("toss", mockCtor("toss"))
	r.Register("STRIPE", mockCtor("second"))

	assert.Equal(t, []string{"stripe", "toss"}, r.ListProviders())

	p, err := r.Get("stripe")
	require.NoError(t, err)
	assert.Equal(t, "second", p.Name())
}

func TestRegistry_UnknownProvider(t *testing.T) {
	tests := []struct {
		name       string
		registered []string
		wantIn     []string
	}{
		{
			name:       "lists available providers",
			registered: []string{"stripe", "toss"},
			wantIn:     []string{"Unknown payment provider: paytr", "Available providers: stripe, toss", "registered"},
		},
		{
			name:   "empty registry",
			wantIn: []string{"Available providers: none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(zap.NewNop())
			for _, n := range tt.registered {
				r.Register(n, mockCtor(n))
			}

			p, err := r.Get("PayTR")
			assert.Nil(t, p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnknownProvider))
			assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
			for _, s := range tt.wantIn {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestRegistry_GetConstructor(t *testing.T) {
	r := New(zap.NewNop())
	r.Register("stripe", mockCtor("stripe"))

	ctor, err := r.GetConstructor("STRIPE")
	require.NoError(t, err)
	assert.Equal(t, "stripe", ctor().Name())

	_, err = r.GetConstructor("missing")
	require.Error(t, err)
	assert.Equal(t, "Unknown payment provider: missing. Available: stripe", err.Error())
}

func TestRegistry_Default(t *testing.T) {
	t.Run("falls back to stripe", func(t *testing.T) {
		r := New(zap.NewNop())
		r.Register("stripe", mockCtor("stripe"))

		assert.Equal(t, "stripe", r.DefaultName())
		p, err := r.Get("")
		require.NoError(t, err)
		assert.Equal(t, "stripe", p.Name())
	})

	t.Run("configured default", func(t *testing.T) {
		r := New(zap.NewNop(), WithDefaultProvider("TOSS"))
		r.Register("stripe", mockCtor("stripe"))
		r.Register("toss", mockCtor("toss"))

		assert.Equal(t, "toss", r.DefaultName())
		p, err := r.Get("")
		require.NoError(t, err)
		assert.Equal(t, "toss", p.Name())
	})

	t.Run("default not registered", func(t *testing.T) {
		r := New(zap.NewNop(), WithDefaultProvider("iyzico"))
		r.Register("stripe", mockCtor("stripe"))

		_, err := r.Default()
		assert.ErrorIs(t, err, ErrUnknownProvider)

		// errors are not cached
		r.Register("iyzico", mockCtor("iyzico"))
		p, err := r.Default()
		require.NoError(t, err)
		assert.Equal(t, "iyzico", p.Name())
	})

	t.Run("cached instance", func(t *testing.T) {
		r := New(zap.NewNop())
		r.Register("stripe", mockCtor("stripe"))

		a, err := r.Default()
		require.NoError(t, err)
		b, err := r.Default()
		require.NoError(t, err)
		assert.Same(t, a, b)

		r.Register("stripe", mockCtor("stripe"))
		c, err := r.Default()
		require.NoError(t, err)
		assert.NotSame(t, a, c)
	})
}

func TestRegistry_UnregisterAndClear(t *testing.T) {
	r := New(zap.NewNop())
	r.Register("stripe", mockCtor("stripe"))
	r.Register("toss", mockCtor("toss"))

	r.Unregister("missing")
	r.Unregister("STRIPE")
	assert.False(t, r.IsRegistered("stripe"))
	assert.Equal(t, []string{"toss"}, r.ListProviders())

	r.Clear()
	assert.Empty(t, r.ListProviders())
	assert.False(t, r.IsRegistered("toss"))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New(zap.NewNop())
	r.Register("stripe", mockCtor("stripe"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = r.Get("stripe")
			_, _ = r.Default()
		}()
		go func() {
			defer wg.Done()
			r.Register("toss", mockCtor("toss"))
			_ = r.ListProviders()
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"stripe", "toss"}, r.ListProviders())
}
