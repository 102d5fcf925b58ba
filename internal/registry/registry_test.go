package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterAssignsMonotonicIDs(t *testing.T) {
	r := New(zap.NewNop())

	eur := r.Register("EUR/USD")
	aud := r.Register("AUD/JPY")
	assert.Equal(t, RequestID(0), eur)
	assert.Equal(t, RequestID(1), aud)

	symbol, err := r.Resolve(eur)
	require.NoError(t, err)
	assert.Equal(t, "EUR/USD", symbol)

	symbol, err = r.Resolve(aud)
	require.NoError(t, err)
	assert.Equal(t, "AUD/JPY", symbol)
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := New(zap.NewNop())

	first := r.Register("EUR/USD")
	again := r.Register("EUR/USD")
	assert.Equal(t, first, again)

	next := r.Register("GBP/NZD")
	assert.Equal(t, first+1, next, "re-registration must not consume an id")
	assert.ElementsMatch(t, []string{"EUR/USD", "GBP/NZD"}, r.Symbols())
}

func TestResolveUnknownID(t *testing.T) {
	r := New(zap.NewNop())
	r.Register("EUR/USD")

	_, err := r.Resolve(RequestID(42))
	assert.ErrorIs(t, err, ErrUnknownRequestID)
}
