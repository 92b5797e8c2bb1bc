package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vuongle2609/Minecraft/internal/config"
	"github.com/vuongle2609/Minecraft/internal/game"
	"github.com/vuongle2609/Minecraft/internal/logging"
	"github.com/vuongle2609/Minecraft/internal/observability"
	"github.com/vuongle2609/Minecraft/internal/player"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (или SANDBOX_CONFIG)")
		duration   = flag.Duration("duration", 30*time.Second, "Длительность сценария; 0 - до сигнала")
		fps        = flag.Int("fps", 30, "Кадров в секунду")
		turnEvery  = flag.Duration("turn", 3*time.Second, "Период поворота на 90 градусов")
	)
	flag.Parse()

	if err := logging.InitDefaultLogger("sandbox"); err != nil {
		logging.Error("Ошибка инициализации логгера: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("Трассировка недоступна: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer shutdownTelemetry(context.Background())

	session, err := game.NewSession(ctx, cfg, game.Options{})
	if err != nil {
		logging.Error("❌ Ошибка запуска сессии: %v", err)
		os.Exit(1)
	}
	logging.Info("🎮 Headless песочница запущена, метрики на порту %d", cfg.Metrics.GetMetricsPort())

	run(ctx, session, *fps, *turnEvery)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := session.Close(shutdownCtx); err != nil {
		logging.Error("Ошибка завершения сессии: %v", err)
		os.Exit(1)
	}
	logging.Info("✅ Сессия завершена")
}

// run прогоняет сценарий: ходьба с поворотами, прыжки и редкие правки мира
func run(ctx context.Context, s *game.Session, fps int, turnEvery time.Duration) {
	if fps <= 0 {
		fps = 30
	}
	frame := time.Second / time.Duration(fps)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	start := time.Now()
	last := start
	frames := 0
	for {
		select {
		case <-ctx.Done():
			p := s.Player().Position()
			logging.Info("Кадров: %d, позиция %.2f %.2f %.2f, чанк %s",
				frames, p.X(), p.Y(), p.Z(), s.Streaming().Current().Key())
			return
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now
			frames++

			elapsed := now.Sub(start)
			heading := math.Pi / 2 * float64(int(elapsed/turnEvery))
			forward := mgl64.Vec3{math.Sin(heading), 0, math.Cos(heading)}
			intent := player.Intent{Forward: true, Jump: frames%(fps*2) == 0}

			if err := s.Tick(ctx, delta, intent, forward); err != nil {
				logging.Warn("кадр %d: %v", frames, err)
			}
			if frames%(fps*5) == 0 {
				edit(s)
			}
			s.Flush()
		}
	}
}

// edit ставит блок рядом с игроком на поверхность
func edit(s *game.Session) {
	p := s.Player().Position()
	below := vec.Snap(mgl64.Vec3{p.X() + vec.BlockWidth*2, 0, p.Z()})
	surface := s.World().Get(below)
	if surface == block.Air {
		return
	}
	hit := vec.FaceName(below, surface.String(), vec.FaceTop)
	if pos, err := s.Place(hit, block.Cobblestone, vec.BlockWidth*2); err == nil {
		logging.Debug("Поставлен блок %s", pos.Key())
	}
}
