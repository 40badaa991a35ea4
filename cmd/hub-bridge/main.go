// hub-bridge consumes topic messages from Kafka and forwards each record to
// the Adapter Hub over the RPC client. Records that fail at the transport
// layer are published to the configured DLQ topic.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	adapterhub "github.com/9kl/lsyiot-adapter-hub-sdk"
	"github.com/9kl/lsyiot-adapter-hub-sdk/internal/bridge"
	"github.com/9kl/lsyiot-adapter-hub-sdk/internal/config"
	"github.com/9kl/lsyiot-adapter-hub-sdk/internal/kafka/consumer"
	"github.com/9kl/lsyiot-adapter-hub-sdk/internal/kafka/producer"
	"github.com/9kl/lsyiot-adapter-hub-sdk/internal/logger"
)

func main() {
	cfg, err := config.Load(true)
	if err != nil {
		boot := bootstrapLogger()
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		boot := bootstrapLogger()
		boot.Fatal().Err(err).Msg("failed to initialise logger")
	}

	client, err := adapterhub.NewRPCClient(cfg.Hub.RPCURL,
		adapterhub.WithRPCTimeout(time.Duration(cfg.Hub.TimeoutSeconds)*time.Second),
		adapterhub.WithRPCLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise rpc client")
	}

	var dlq bridge.DLQPublisher
	if cfg.Kafka.DLQTopic != "" {
		prod, err := producer.New(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialise kafka producer")
		}
		defer prod.Close()
		dlq = prod
	}

	fwd, err := bridge.New(client, dlq, bridge.Config{
		Concurrency:    int64(cfg.Bridge.Concurrency),
		ForwardTimeout: time.Duration(cfg.Bridge.ForwardTimeoutSeconds) * time.Second,
		DLQTopic:       cfg.Kafka.DLQTopic,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise bridge")
	}

	cons, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise kafka consumer")
	}
	defer cons.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Strs("topics", cfg.Kafka.Topics).
		Str("hub_rpc_url", cfg.Hub.RPCURL).
		Str("dlq_topic", cfg.Kafka.DLQTopic).
		Msg("hub bridge starting")

	if err := cons.Consume(ctx, cfg.Kafka.Topics, fwd.Handle); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("consumer stopped unexpectedly")
	}

	log.Info().Msg("hub bridge stopped")
}

func bootstrapLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
