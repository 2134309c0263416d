package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/bistro-suite/bistro/testing"
)

type memRepo struct {
	values map[string]string
}

func (m *memRepo) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", errMissing
	}
	return v, nil
}

func (m *memRepo) Set(_ context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func TestServiceFeeRateDefault(t *testing.T) {
	svc := NewService(&memRepo{values: map[string]string{}})
	rate, err := svc.ServiceFeeRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceFeeRate, rate)
}

func TestServiceFeeRateRoundTrip(t *testing.T) {
	svc := NewService(&memRepo{values: map[string]string{}})
	require.NoError(t, svc.SetServiceFeeRate(context.Background(), 12.5))

	rate, err := svc.ServiceFeeRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, rate)
}

func TestServiceFeeRateIgnoresCorruptValue(t *testing.T) {
	repo := &memRepo{values: map[string]string{keyServiceFeeRate: "banana"}}
	svc := NewService(repo)
	rate, err := svc.ServiceFeeRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceFeeRate, rate)
}

func TestSetServiceFeeRateBounds(t *testing.T) {
	svc := NewService(&memRepo{values: map[string]string{}})
	assert.ErrorIs(t, svc.SetServiceFeeRate(context.Background(), -1), ErrInvalidRate)
	assert.ErrorIs(t, svc.SetServiceFeeRate(context.Background(), 101), ErrInvalidRate)
	assert.NoError(t, svc.SetServiceFeeRate(context.Background(), 0))
	assert.NoError(t, svc.SetServiceFeeRate(context.Background(), 100))
}
