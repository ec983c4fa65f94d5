package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("clinic", reg)

	m.PermissionDecisions.WithLabelValues("ADMIN", "allowed").Inc()
	m.SessionTransitions.WithLabelValues("unloaded", "authenticated").Inc()
	m.RefreshSignals.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermissionDecisions.WithLabelValues("ADMIN", "allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshSignals))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "clinic_permission_decisions_total")
	assert.Contains(t, names, "clinic_identity_refresh_signals_total")
}

func TestNewWithoutRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		New("a", nil)
		New("a", nil)
	})
}
