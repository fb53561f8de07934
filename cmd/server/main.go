package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/annel0/blockverse/internal/config"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/network"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
	_ "github.com/annel0/blockverse/internal/world/block/implementations"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $BLOCKVERSE_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitLogger(logging.Config{
		Level:     cfg.Logging.Level,
		Directory: cfg.Logging.Directory,
		Console:   cfg.Logging.Console,
	}); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()

	logging.Info("🎮 Запуск Blockverse %s (протокол %d)", protocol.GameVersion, protocol.ProtocolVersion)

	reg := prometheus.NewRegistry()
	metrics := network.NewMetrics(reg)
	if cfg.Metrics.Enabled {
		metricsSrv := network.StartMetricsServer(":"+strconv.Itoa(cfg.Metrics.GetPort()), reg)
		defer metricsSrv.Close()
	}

	w, err := world.Open(cfg.World.Path, world.Meta{
		Seed:        cfg.World.Seed,
		Generator:   world.GeneratorKind(cfg.World.Generator),
		SaveFormat:  world.SaveFormat(cfg.World.SaveFormat),
		Compression: world.Compression(cfg.World.Compression),
		Dimension:   world.Dimension{MinY: cfg.World.MinY, Height: cfg.World.Height},
	}, world.WithObserver(metrics))
	if err != nil {
		logging.Error("❌ Ошибка открытия мира: %v", err)
		os.Exit(1)
	}

	players, err := storage.Open(storage.Backend(cfg.Players.Backend), cfg.Players.Path)
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища игроков: %v", err)
		os.Exit(1)
	}

	var codec protocol.RawNBT
	if cfg.Server.RegistryCodec != "" {
		if codec, err = network.LoadRegistryCodec(cfg.Server.RegistryCodec); err != nil {
			logging.Error("❌ %v", err)
			os.Exit(1)
		}
	}

	srv, err := network.NewServer(network.Options{
		Config:        cfg.Server,
		World:         w,
		Players:       players,
		Registry:      block.Default(),
		Metrics:       metrics,
		RegistryCodec: codec,
	})
	if err != nil {
		logging.Error("❌ Ошибка создания сервера: %v", err)
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
	case err := <-serveErr:
		if !errors.Is(err, network.ErrServerClosed) {
			logging.Error("❌ Сервер остановился: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, network.ErrServerClosed) {
		logging.Error("❌ Ошибка при остановке: %v", err)
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}
