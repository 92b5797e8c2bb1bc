package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuongle2609/Minecraft/internal/eventbus"
	"github.com/vuongle2609/Minecraft/internal/physics"
	"github.com/vuongle2609/Minecraft/internal/render"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

type stubFaces map[block.TextureClass]render.BatchStats

func (s stubFaces) Stats() map[block.TextureClass]render.BatchStats { return s }

type stubResolver struct{ st physics.ResolverStats }

func (s *stubResolver) Stats() physics.ResolverStats { return s.st }

type stubBus struct{ st eventbus.Stats }

func (s *stubBus) Metrics() eventbus.Stats { return s.st }

func family(t *testing.T, e *Exporter, name string) *dto.MetricFamily {
	t.Helper()
	families, err := e.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("метрика %s не найдена", name)
	return nil
}

func TestExporter_RefreshAppliesDeltas(t *testing.T) {
	faces := stubFaces{"grass_top": {Live: 4, DirtyMarks: 7}}
	res := &stubResolver{st: physics.ResolverStats{Handled: 3, RepliesDropped: 1}}
	bus := &stubBus{st: eventbus.Stats{Published: 2}}
	active := 9

	e := NewExporter(Sources{Faces: faces, Resolver: res, Bus: bus, Chunks: func() int { return active }})
	e.Refresh()

	res.st.Handled = 10
	faces["grass_top"] = render.BatchStats{Live: 2, DirtyMarks: 9}
	active = 4
	e.Refresh()

	handled := family(t, e, "sandbox_physics_messages_handled_total")
	assert.Equal(t, float64(10), handled.Metric[0].GetCounter().GetValue())

	dropped := family(t, e, "sandbox_physics_replies_dropped_total")
	assert.Equal(t, float64(1), dropped.Metric[0].GetCounter().GetValue())

	slots := family(t, e, "sandbox_render_face_slots")
	require.Len(t, slots.Metric, 1)
	assert.Equal(t, float64(2), slots.Metric[0].GetGauge().GetValue())

	marks := family(t, e, "sandbox_render_dirty_marks_total")
	assert.Equal(t, float64(9), marks.Metric[0].GetCounter().GetValue())

	chunks := family(t, e, "sandbox_world_active_chunks")
	assert.Equal(t, float64(4), chunks.Metric[0].GetGauge().GetValue())
}

func TestExporter_NilSources(t *testing.T) {
	e := NewExporter(Sources{})
	assert.NotPanics(t, e.Refresh)
}

func TestExporter_Handler(t *testing.T) {
	e := NewExporter(Sources{Chunks: func() int { return 3 }})
	e.Refresh()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	e.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "sandbox_world_active_chunks 3"))
}

func TestExporter_StartStop(t *testing.T) {
	res := &stubResolver{st: physics.ResolverStats{Ignored: 2}}
	e := NewExporter(Sources{Resolver: res})
	e.Start(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Stop(ctx))
	require.NoError(t, e.Stop(ctx))

	ignored := family(t, e, "sandbox_physics_messages_ignored_total")
	assert.Equal(t, float64(2), ignored.Metric[0].GetCounter().GetValue())
}

type stubProcess struct{}

func (stubProcess) Sample() ProcessSample {
	return ProcessSample{Uptime: 90 * time.Second, CPUPercent: 12.5, AllocMB: 3, Goroutines: 7}
}

func TestExporter_ProcessGauges(t *testing.T) {
	e := NewExporter(Sources{Process: stubProcess{}})
	e.Refresh()

	assert.Equal(t, float64(90), family(t, e, "sandbox_process_uptime_seconds").Metric[0].GetGauge().GetValue())
	assert.Equal(t, 12.5, family(t, e, "sandbox_process_cpu_percent").Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(7), family(t, e, "sandbox_process_goroutines").Metric[0].GetGauge().GetValue())
}

func TestProcessStats_Sample(t *testing.T) {
	ps := NewProcessStats()
	s := ps.Sample()
	assert.Greater(t, s.Goroutines, 0)
	assert.Greater(t, s.AllocMB, 0.0)
	assert.GreaterOrEqual(t, s.CPUPercent, 0.0)
}
