// handlers.go contains the command implementations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/loom/internal/bridge"
	"github.com/haasonsaas/loom/internal/config"
	slackdelivery "github.com/haasonsaas/loom/internal/delivery/slack"
	"github.com/haasonsaas/loom/internal/observability"
	"github.com/haasonsaas/loom/internal/render"
	"github.com/haasonsaas/loom/internal/surface"
	"github.com/haasonsaas/loom/internal/tail"
)

func runRender(ctx context.Context, inputPath string, strict bool) error {
	logger := observability.NewLogger(observability.LogConfig{Format: "text"})

	var in io.Reader = os.Stdin
	if inputPath != "" {
		file, err := os.Open(inputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	store := surface.NewStore(render.NewRenderer(), logger)
	if strict {
		// Strict mode runs the stream path so schema violations are reported.
		payloads := map[string]surface.Payload{}
		err := surface.Pump(ctx, strings.NewReader(string(data)), store, surface.PumpOptions{
			Decoder: surface.DecoderOptions{
				Strict:  true,
				OnError: func(err error) { fmt.Fprintln(os.Stderr, "invalid line:", err) },
			},
			OnRender: func(id string, payload surface.Payload) {
				payloads[id] = payload
			},
			OnError: func(err error) {
				logger.Warn("render failed", "error", err)
			},
		})
		if err != nil {
			return err
		}
		return printPayloads(payloads)
	}

	payloads, err := surface.ProcessNDJSON(string(data), store)
	if err != nil {
		logger.Warn("some surfaces failed to render", "error", err)
	}
	return printPayloads(payloads)
}

func printPayloads(payloads map[string]surface.Payload) error {
	out := map[string]json.RawMessage{}
	for id, payload := range payloads {
		raw, err := payload.CanonicalJSON()
		if err != nil {
			return fmt.Errorf("serialize payload for %q: %w", id, err)
		}
		out[id] = raw
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSlack(); err != nil {
		return err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := surface.NewMetrics()
	store := surface.NewStore(render.NewRenderer(), logger)
	store.SetMetrics(metrics)
	store.SetHub(surface.NewHub())

	b := bridge.New(store, loggingHandler(logger), logger)
	b.SetMetrics(metrics)

	deliverer := slackdelivery.New(slackdelivery.Config{
		BotToken: cfg.Slack.BotToken,
		AppToken: cfg.Slack.AppToken,
		Channel:  cfg.Slack.Channel,
	}, b, logger)
	if err := deliverer.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := deliverer.Stop(stopCtx); err != nil {
			logger.Warn("slack deliverer shutdown incomplete", "error", err)
		}
	}()

	if cfg.Metrics.Listen != "" {
		go serveMetrics(cfg.Metrics.Listen, logger)
	}

	logger.Info("consuming stream", "source", "stdin", "strict", cfg.Decoder.Strict)
	return surface.Pump(ctx, os.Stdin, store, surface.PumpOptions{
		Decoder: surface.DecoderOptions{
			Strict:  cfg.Decoder.Strict,
			Metrics: metrics,
		},
		OnRender: func(id string, payload surface.Payload) {
			if err := deliverer.Deliver(ctx, id, payload); err != nil {
				logger.Warn("delivery failed", "surface_id", id, "error", err)
			}
		},
		OnError: func(err error) {
			logger.Warn("stream processing error", "error", err)
		},
		OnEnd: func() {
			logger.Info("stream ended")
		},
	})
}

func runTail(ctx context.Context, filePath string, debug bool) error {
	level := "info"
	if debug {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{Level: level, Format: "text"})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := surface.NewStore(render.NewRenderer(), logger)
	follower := tail.New(filePath, store, logger,
		func(id string, payload surface.Payload) {
			raw, err := payload.CanonicalJSON()
			if err != nil {
				logger.Warn("serialize payload failed", "surface_id", id, "error", err)
				return
			}
			fmt.Printf("%s\t%s\n", id, raw)
		},
		func(err error) {
			logger.Warn("render failed", "error", err)
		})
	if err := follower.Start(ctx); err != nil {
		return err
	}
	defer follower.Close()

	<-ctx.Done()
	return nil
}

func runConfigSchema() error {
	schema, err := config.JSONSchema()
	if err != nil {
		return err
	}
	fmt.Println(string(schema))
	return nil
}

func serveMetrics(listen string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(listen, mux); err != nil {
		logger.Warn("metrics server stopped", "error", err)
	}
}

// loggingHandler is the default interaction handler: it records the action so
// the binary remains useful before application behavior is wired in.
func loggingHandler(logger *slog.Logger) bridge.Handler {
	return func(ctx context.Context, in bridge.Interaction) error {
		logger.Info("interaction received",
			"interaction_id", in.ID, "user_id", in.UserID,
			"action", in.ActionName, "args", in.Args)
		return nil
	}
}
