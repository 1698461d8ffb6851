package provision

import (
	"context"

	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("port.provision",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			BatchSize:    cfg.Provision.BatchSize,
			PollInterval: cfg.Provision.PollInterval,
		}
	}),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, worker *Worker, cfg config.Config) {
	if !cfg.Provision.Enabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
