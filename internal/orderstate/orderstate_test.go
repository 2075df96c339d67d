package orderstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_HappyPathPlannedOpenFilled(t *testing.T) {
	now := time.Now()
	l := NewPlanned(1, 100, Buy, 1, now)
	require.NoError(t, l.Open(now.Add(time.Second)))
	assert.Equal(t, Open, l.State)
	require.NoError(t, l.Fill())
	assert.Equal(t, Filled, l.State)
	assert.True(t, l.State.Terminal())
}

func TestLevel_FillFromPlannedIsIllegal(t *testing.T) {
	l := NewPlanned(1, 100, Buy, 1, time.Now())
	err := l.Fill()
	var illegal *ErrIllegalTransition
	assert.ErrorAs(t, err, &illegal)
}

func TestLevel_ExpireNoopBeforeMaxAge(t *testing.T) {
	now := time.Now()
	l := NewPlanned(1, 100, Buy, 1, now)
	require.NoError(t, l.Open(now))
	expired, err := l.Expire(now.Add(time.Minute), time.Hour)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, Open, l.State)
}

func TestLevel_ExpireTransitionsAfterMaxAge(t *testing.T) {
	now := time.Now()
	l := NewPlanned(1, 100, Buy, 1, now)
	require.NoError(t, l.Open(now))
	expired, err := l.Expire(now.Add(2*time.Hour), time.Hour)
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, Expired, l.State)
}

func TestLevel_CancelFromPlannedAndOpen(t *testing.T) {
	now := time.Now()
	planned := NewPlanned(1, 100, Buy, 1, now)
	require.NoError(t, planned.Cancel())
	assert.Equal(t, Cancelled, planned.State)

	opened := NewPlanned(2, 100, Buy, 1, now)
	require.NoError(t, opened.Open(now))
	require.NoError(t, opened.Cancel())
	assert.Equal(t, Cancelled, opened.State)
}

func TestLevel_CancelFromTerminalIsIllegal(t *testing.T) {
	now := time.Now()
	l := NewPlanned(1, 100, Buy, 1, now)
	require.NoError(t, l.Open(now))
	require.NoError(t, l.Fill())
	err := l.Cancel()
	var illegal *ErrIllegalTransition
	assert.ErrorAs(t, err, &illegal)
}

func TestLevel_RearmProducesFreshPlannedAtSamePrice(t *testing.T) {
	now := time.Now()
	l := NewPlanned(1, 99.5, Sell, 2, now)
	require.NoError(t, l.Open(now))
	_, err := l.Expire(now.Add(2*time.Hour), time.Hour)
	require.NoError(t, err)

	fresh, err := l.Rearm(2, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, Planned, fresh.State)
	assert.Equal(t, l.Price, fresh.Price)
	assert.Equal(t, l.Side, fresh.Side)
	assert.Equal(t, 2, fresh.ID)
}

func TestLevel_RearmOnNonExpiredIsError(t *testing.T) {
	l := NewPlanned(1, 100, Buy, 1, time.Now())
	_, err := l.Rearm(2, time.Now())
	assert.Error(t, err)
}
