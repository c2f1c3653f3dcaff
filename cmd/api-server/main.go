// Binary api-server serves the kirana store HTTP API.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/kiranakart/kirana-backend/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		return appkg.Run(ctx, lg, m, cfg)
	})
}
