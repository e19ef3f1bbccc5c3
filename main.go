package main

import (
	"net/http"
	"os"
	"time"

	"github.com/cisconnect/fleetwatch/app"
	"github.com/cisconnect/fleetwatch/config"
	"github.com/cisconnect/fleetwatch/lib"
	"github.com/cisconnect/fleetwatch/lib/feed"
	"github.com/cisconnect/fleetwatch/lib/poller"
	"github.com/cisconnect/fleetwatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewSenderRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewStore),
		fx.Provide(app.NewTransport),
		fx.Provide(feed.NewFetcher),
		fx.Provide(poller.NewPoller),
		fx.Provide(lib.NewService),
		fx.Provide(app.NewHTTPServer),

		fx.Invoke(func(*http.Server) {}),
	).Run()
}
