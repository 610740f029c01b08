package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/pkg/config"
)

func TestSetupTracing_SinEndpointEsNoop(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), config.OtelConfig{}, "inventario-core", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
