package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vuongle2609/Minecraft/internal/eventbus"
	"github.com/vuongle2609/Minecraft/internal/logging"
	"github.com/vuongle2609/Minecraft/internal/physics"
	"github.com/vuongle2609/Minecraft/internal/render"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// FaceStats источник статистики батчей граней
type FaceStats interface {
	Stats() map[block.TextureClass]render.BatchStats
}

// ResolverStats источник счётчиков резолвера
type ResolverStats interface {
	Stats() physics.ResolverStats
}

// BusStats источник счётчиков шины событий
type BusStats interface {
	Metrics() eventbus.Stats
}

// ProcessSource источник показателей процесса
type ProcessSource interface {
	Sample() ProcessSample
}

// Sources набор опрашиваемых подсистем; любое поле может быть nil
type Sources struct {
	Faces    FaceStats
	Resolver ResolverStats
	Bus      BusStats
	Process  ProcessSource
	Chunks   func() int
}

// Exporter публикует показатели песочницы в собственном регистре Prometheus
// и периодически обновляет их из Sources.
type Exporter struct {
	src      Sources
	registry *prometheus.Registry

	faceSlots  *prometheus.GaugeVec
	dirtyMarks *prometheus.CounterVec
	handled    prometheus.Counter
	gated      prometheus.Counter
	ignored    prometheus.Counter
	dropped    prometheus.Counter
	published  prometheus.Counter
	busDropped prometheus.Counter
	chunks     prometheus.Gauge
	uptime     prometheus.Gauge
	cpu        prometheus.Gauge
	memory     prometheus.Gauge
	goroutines prometheus.Gauge

	mu        sync.Mutex
	prevDirty map[block.TextureClass]uint64
	prevRes   physics.ResolverStats
	prevBus   eventbus.Stats

	quit     chan struct{}
	done     chan struct{}
	running  atomic.Bool
	stopOnce sync.Once
	server   *http.Server
}

// NewExporter создаёт экспортер и регистрирует метрики
func NewExporter(src Sources) *Exporter {
	e := &Exporter{
		src:       src,
		registry:  prometheus.NewRegistry(),
		prevDirty: make(map[block.TextureClass]uint64),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		faceSlots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sandbox",
			Subsystem: "render",
			Name:      "face_slots",
			Help:      "Занятые слоты граней по классу текстуры.",
		}, []string{"class"}),
		dirtyMarks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sandbox",
			Subsystem: "render",
			Name:      "dirty_marks_total",
			Help:      "Пометки слотов для выгрузки по классу текстуры.",
		}, []string{"class"}),
		handled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sandbox",
			Subsystem: "physics",
			Name:      "messages_handled_total",
			Help:      "Команды, обработанные резолвером.",
		}),
		gated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sandbox",
			Subsystem: "physics",
			Name:      "movement_gated_total",
			Help:      "Запросы движения до готовности сетки.",
		}),
		ignored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sandbox",
			Subsystem: "physics",
			Name:      "messages_ignored_total",
			Help:      "Неизвестные или повреждённые сообщения.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sandbox",
			Subsystem: "physics",
			Name:      "replies_dropped_total",
			Help:      "Ответы, вытесненные более свежими.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sandbox",
			Subsystem: "eventbus",
			Name:      "messages_published_total",
			Help:      "Опубликованные события мира.",
		}),
		busDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sandbox",
			Subsystem: "eventbus",
			Name:      "messages_dropped_total",
			Help:      "События, отброшенные шиной.",
		}),
		chunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sandbox",
			Subsystem: "world",
			Name:      "active_chunks",
			Help:      "Количество активных чанков.",
		}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sandbox",
			Subsystem: "process",
			Name:      "uptime_seconds",
			Help:      "Время работы процесса.",
		}),
		cpu: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sandbox",
			Subsystem: "process",
			Name:      "cpu_percent",
			Help:      "Загрузка CPU процессом в процентах.",
		}),
		memory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sandbox",
			Subsystem: "process",
			Name:      "alloc_megabytes",
			Help:      "Выделенная куча в MB.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sandbox",
			Subsystem: "process",
			Name:      "goroutines",
			Help:      "Количество горутин.",
		}),
	}

	e.registry.MustRegister(e.faceSlots, e.dirtyMarks, e.handled, e.gated, e.ignored,
		e.dropped, e.published, e.busDropped, e.chunks,
		e.uptime, e.cpu, e.memory, e.goroutines)
	return e
}

// Registry регистр экспортера
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// Handler HTTP-обработчик /metrics
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Refresh снимает показатели со всех источников
func (e *Exporter) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.src.Faces != nil {
		for class, st := range e.src.Faces.Stats() {
			label := string(class)
			e.faceSlots.WithLabelValues(label).Set(float64(st.Live))
			if d := st.DirtyMarks - e.prevDirty[class]; d > 0 {
				e.dirtyMarks.WithLabelValues(label).Add(float64(d))
			}
			e.prevDirty[class] = st.DirtyMarks
		}
	}

	if e.src.Resolver != nil {
		st := e.src.Resolver.Stats()
		addDelta(e.handled, st.Handled, e.prevRes.Handled)
		addDelta(e.gated, st.Gated, e.prevRes.Gated)
		addDelta(e.ignored, st.Ignored, e.prevRes.Ignored)
		addDelta(e.dropped, st.RepliesDropped, e.prevRes.RepliesDropped)
		e.prevRes = st
	}

	if e.src.Bus != nil {
		st := e.src.Bus.Metrics()
		addDelta(e.published, st.Published, e.prevBus.Published)
		addDelta(e.busDropped, st.Dropped, e.prevBus.Dropped)
		e.prevBus = st
	}

	if e.src.Chunks != nil {
		e.chunks.Set(float64(e.src.Chunks()))
	}

	if e.src.Process != nil {
		ps := e.src.Process.Sample()
		e.uptime.Set(ps.Uptime.Seconds())
		e.cpu.Set(ps.CPUPercent)
		e.memory.Set(ps.AllocMB)
		e.goroutines.Set(float64(ps.Goroutines))
	}
}

func addDelta(c prometheus.Counter, cur, prev uint64) {
	if cur > prev {
		c.Add(float64(cur - prev))
	}
}

// Start запускает периодическое обновление
func (e *Exporter) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	go e.loop(interval)
}

// StartHTTP поднимает /metrics на addr (например, ":2112") и запускает обновление.
// Метод неблокирующий.
func (e *Exporter) StartHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	e.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	e.Start(time.Second)
}

// Stop останавливает обновление и HTTP-сервер, если он был запущен
func (e *Exporter) Stop(ctx context.Context) error {
	e.stopOnce.Do(func() {
		close(e.quit)
		if e.running.Load() {
			<-e.done
		}
	})
	if e.server != nil {
		return e.server.Shutdown(ctx)
	}
	return nil
}

func (e *Exporter) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ticker.C:
			e.Refresh()
		case <-e.quit:
			e.Refresh()
			return
		}
	}
}
