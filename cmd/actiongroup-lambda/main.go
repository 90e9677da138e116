package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/soyeahso/actiongroup/internal/app"
	"github.com/soyeahso/actiongroup/internal/config"
	"github.com/soyeahso/actiongroup/internal/handler"
	"github.com/soyeahso/actiongroup/internal/logging"
)

func main() {
	paths, err := config.ResolvePaths()
	if err != nil {
		// No home directory inside the runtime; env overrides still apply.
		paths = config.Paths{Config: os.Getenv("ACTIONGROUP_CONFIG")}
	}
	if v := os.Getenv("ACTIONGROUP_CONFIG"); v != "" {
		paths.Config = v
	}

	cfg, err := config.Load(paths.Config)
	if err != nil {
		logging.NewStyled("json", "error").Fatal().Err(err).Msg("loading config")
	}
	log := logging.NewStyled("json", cfg.Logging.Level)

	if err := app.Validated(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("refusing to start")
	}

	a, err := app.Build(context.Background(), cfg, paths, log, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring components")
	}
	defer a.Close()

	lambda.Start(handler.New(a.Dispatcher, log).Handle)
}
