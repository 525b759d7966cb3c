package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrityFSM_Transitions(t *testing.T) {
	ctx := context.Background()
	alerts := 0
	f := NewIntegrityFSM(func(ctx context.Context) { alerts++ })

	assert.Equal(t, IntegrityUnknown, f.Current())
	assert.False(t, f.Can(EventRestore))

	require.NoError(t, f.Confirm(ctx, false))
	assert.Equal(t, IntegrityVerified, f.Current())

	// repeated success is a no-op
	require.NoError(t, f.Confirm(ctx, true))
	assert.Equal(t, IntegrityVerified, f.Current())

	require.NoError(t, f.Breach(ctx))
	assert.Equal(t, IntegrityCompromised, f.Current())
	assert.Equal(t, 1, alerts)

	// still broken: no second alert
	require.NoError(t, f.Breach(ctx))
	assert.Equal(t, 1, alerts)

	// incremental success cannot clear a breach
	require.NoError(t, f.Confirm(ctx, false))
	assert.Equal(t, IntegrityCompromised, f.Current())

	require.NoError(t, f.Confirm(ctx, true))
	assert.Equal(t, IntegrityVerified, f.Current())

	require.NoError(t, f.Breach(ctx))
	assert.Equal(t, 2, alerts)
}

func TestIntegrityFSM_BreachFromUnknown(t *testing.T) {
	f := NewIntegrityFSM(nil)

	require.NoError(t, f.Breach(context.Background()))
	assert.Equal(t, IntegrityCompromised, f.Current())
	assert.True(t, f.Can(EventRestore))
	assert.False(t, f.Can(EventConfirm))
}
