// hub-probe sends a few sample topic messages through the RPC client to
// verify connectivity with a running Adapter Hub. With HUB_API_URL set it
// also exercises the WEB API client.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	adapterhub "github.com/9kl/lsyiot-adapter-hub-sdk"
	"github.com/9kl/lsyiot-adapter-hub-sdk/internal/config"
	"github.com/9kl/lsyiot-adapter-hub-sdk/internal/logger"
)

func main() {
	cfg, err := config.Load(false)
	if err != nil {
		boot := bootstrapLogger()
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		boot := bootstrapLogger()
		boot.Fatal().Err(err).Msg("failed to initialise logger")
	}

	timeout := time.Duration(cfg.Hub.TimeoutSeconds) * time.Second
	client, err := adapterhub.NewRPCClient(cfg.Hub.RPCURL,
		adapterhub.WithRPCTimeout(timeout),
		adapterhub.WithRPCLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise rpc client")
	}

	probes := []struct {
		topic   string
		payload adapterhub.Payload
	}{
		{"probe/text", adapterhub.Text("25.5")},
		{"probe/object", adapterhub.Object(map[string]any{"device_id": "probe-001", "status": "online"})},
		{"probe/list", adapterhub.List([]any{map[string]any{"id": 1}, map[string]any{"id": 2}})},
	}

	ctx := context.Background()
	for _, probe := range probes {
		result, err := client.SendTopicMessage(ctx, probe.topic, probe.payload)
		if err != nil {
			log.Fatal().Err(err).Str("topic", probe.topic).Msg("probe send failed")
		}
		log.Info().
			Str("topic", probe.topic).
			Int("code", result.Code()).
			Bool("success", result.IsSuccess()).
			Str("message", result.Message()).
			Msg("probe reply")
	}

	if cfg.Hub.APIURL != "" {
		apiClient, err := adapterhub.NewAPIClient(cfg.Hub.APIURL,
			adapterhub.WithAPITimeout(timeout),
			adapterhub.WithAPILogger(log),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialise api client")
		}

		result, err := apiClient.SendRequest(ctx, "/sensor/data", map[string]any{"temperature": 25.5})
		if err != nil {
			log.Fatal().Err(err).Msg("api probe failed")
		}
		log.Info().
			Str("status", result.Status()).
			Str("message", result.Message()).
			Msg("api probe reply")
	}

	log.Info().Msg("hub probe completed")
}

func bootstrapLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
