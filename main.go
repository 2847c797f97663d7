package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"camclassify/internal/clock"
	"camclassify/internal/config"
	"camclassify/internal/i18n"
	"camclassify/internal/logging"
	"camclassify/internal/page"
	ui "camclassify/internal/ui"
	"camclassify/processing/inference"
	"camclassify/processing/inference/onnx"
	"camclassify/processing/media"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to the JSON config file")
	flag.Parse()

	cfg := config.LoadConfigFile(*configPath)

	logger, err := logging.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tr, err := i18n.New(cfg.Language)
	if err != nil {
		logger.Fatal("load translations", zap.String("language", cfg.Language), zap.Error(err))
	}

	loader := inference.NewLoader(logger)
	loader.Register(inference.BackendONNX, onnx.Open)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	model, err := loader.Load(ctx, cfg.ModelURL, cfg.MetadataURL)
	cancel()
	if err != nil {
		logger.Fatal("load model", zap.String("model", cfg.ModelURL), zap.Error(err))
	}

	sys := media.NewSystem(media.Options{
		DevDir:      cfg.DevDir,
		SysDir:      cfg.SysDir,
		FileSources: cfg.GetFileSources(),
		FPS:         cfg.GetFPS(),
		Width:       cfg.GetWidth(),
		Height:      cfg.GetHeight(),
		Logger:      logger,
	})
	defer sys.Close()

	app := ui.CreateApp(cfg, tr, logger)

	p := page.New(page.Options{
		Platform:      sys,
		Model:         model,
		View:          app.View(),
		Translator:    tr,
		Logger:        logger,
		Clock:         clock.Real(),
		CountdownStep: cfg.GetCountdownStep(),
		Mode:          cfg.StartMode,
		Flipped:       cfg.GetFlipped(),
	})

	logger.Info("starting",
		zap.String("model", cfg.ModelURL),
		zap.String("mode", string(cfg.StartMode)),
		zap.String("language", cfg.Language),
	)

	app.Run(p)
}
