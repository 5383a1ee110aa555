package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/lablia/docflow/internal/metrics"
	"github.com/lablia/docflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_RecordEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnAgentEnter(ctx, &domain.AgentEvent{Name: "cnh_pipeline", Kind: domain.KindPipeline})
	hooks.OnAgentEnter(ctx, &domain.AgentEvent{Name: "cnh_pipeline", Kind: domain.KindPipeline})
	hooks.OnRoute(ctx, &domain.RouteEvent{Coordinator: "extracao_dados_documentos", Child: "cnh_pipeline"})
	hooks.OnModelCall(ctx, &domain.ModelEvent{Model: "gemini-2.5-flash", Duration: 120 * time.Millisecond})
	hooks.OnModelCall(ctx, &domain.ModelEvent{Model: "gemini-2.5-flash", Duration: 80 * time.Millisecond, IsError: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AgentRuns.WithLabelValues("cnh_pipeline", "pipeline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoutingTotal.WithLabelValues("extracao_dados_documentos", "cnh_pipeline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelFailures.WithLabelValues("gemini-2.5-flash")))

	count, err := testutil.GatherAndCount(reg, "docflow_model_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
