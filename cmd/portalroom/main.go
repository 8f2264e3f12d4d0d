// Command portalroom renders the solar system in a room demo.
package main

import (
	"fmt"
	"os"

	"portalroom/internal/config"
	"portalroom/internal/engine"
	"portalroom/internal/logger"

	"github.com/gopxl/mainthread/v2"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(config.FileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "portalroom: %v\n", err)
		return -1
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "portalroom: %v\n", err)
		return -1
	}
	defer logger.Log.Sync()

	code := 0
	mainthread.Run(func() {
		var app *engine.App
		err := mainthread.CallErr(func() error {
			var err error
			app, err = engine.NewApp(cfg)
			return err
		})
		if err != nil {
			logger.Log.Error("Initialization failed", zap.Error(err))
			code = -1
			return
		}
		defer app.Close()
		app.Run()
	})
	return code
}
