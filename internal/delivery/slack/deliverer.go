// Package slack delivers rendered payloads to a Slack channel and feeds
// inbound block actions back through the interaction bridge.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/haasonsaas/loom/internal/bridge"
	"github.com/haasonsaas/loom/internal/delivery"
	"github.com/haasonsaas/loom/internal/render"
	"github.com/haasonsaas/loom/internal/surface"
)

var _ delivery.Deliverer = (*Deliverer)(nil)

// Config holds the Slack deliverer configuration.
type Config struct {
	BotToken string // xoxb- token for API calls
	AppToken string // xapp- token for Socket Mode
	Channel  string // channel id surfaces are posted to
}

// Deliverer posts rendered payloads via the Slack Web API and runs a Socket
// Mode loop that normalizes block_actions events into interaction events.
type Deliverer struct {
	cfg    Config
	client *slack.Client
	socket *socketmode.Client
	bridge *bridge.Bridge
	logger *slog.Logger

	mu     sync.Mutex
	posted map[string]string // surface id -> message timestamp

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Slack deliverer routing interactions through b.
func New(cfg Config, b *bridge.Bridge, logger *slog.Logger) *Deliverer {
	if logger == nil {
		logger = slog.Default()
	}
	client := slack.New(
		cfg.BotToken,
		slack.OptionAppLevelToken(cfg.AppToken),
	)
	return &Deliverer{
		cfg:    cfg,
		client: client,
		socket: socketmode.New(client, socketmode.OptionDebug(false)),
		bridge: b,
		logger: logger.With("component", "slack"),
		posted: map[string]string{},
	}
}

// Start runs the Socket Mode connection and interaction loop.
func (d *Deliverer) Start(ctx context.Context) error {
	ctx, d.cancel = context.WithCancel(ctx)

	authResp, err := d.client.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth: %w", err)
	}
	d.logger.Info("slack deliverer started", "bot_user_id", authResp.UserID)

	d.wg.Add(1)
	go d.handleEvents(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.socket.RunContext(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("socket mode terminated", "error", err)
		}
	}()
	return nil
}

// Stop shuts the deliverer down, waiting for in-flight work up to ctx.
func (d *Deliverer) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliver posts the payload, updating the previously posted message when the
// surface re-renders.
func (d *Deliverer) Deliver(ctx context.Context, surfaceID string, payload surface.Payload) error {
	rendered, ok := payload.(*render.Payload)
	if !ok {
		return fmt.Errorf("slack delivery: unexpected payload type %T", payload)
	}
	if err := rendered.Validate(); err != nil {
		return fmt.Errorf("slack delivery: %w", err)
	}

	options := []slack.MsgOption{
		slack.MsgOptionText(rendered.Text, false),
		slack.MsgOptionBlocks(rendered.Blocks...),
	}

	d.mu.Lock()
	ts, exists := d.posted[surfaceID]
	d.mu.Unlock()

	if exists {
		if _, _, _, err := d.client.UpdateMessageContext(ctx, d.cfg.Channel, ts, options...); err != nil {
			return fmt.Errorf("update slack message: %w", err)
		}
		return nil
	}

	_, timestamp, err := d.client.PostMessageContext(ctx, d.cfg.Channel, options...)
	if err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	d.mu.Lock()
	d.posted[surfaceID] = timestamp
	d.mu.Unlock()
	return nil
}

func (d *Deliverer) handleEvents(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.socket.Events:
			if !ok {
				return
			}
			switch event.Type {
			case socketmode.EventTypeConnecting:
				d.logger.Debug("connecting to socket mode")
			case socketmode.EventTypeConnected:
				d.logger.Debug("connected to socket mode")
			case socketmode.EventTypeConnectionError:
				d.logger.Warn("socket mode connection error", "data", event.Data)
			case socketmode.EventTypeInteractive:
				if event.Request != nil {
					d.socket.Ack(*event.Request)
				}
				callback, ok := event.Data.(slack.InteractionCallback)
				if !ok {
					d.logger.Warn("unexpected interactive event payload", "data", event.Data)
					continue
				}
				d.dispatchInteractions(ctx, &callback)
			}
		}
	}
}

func (d *Deliverer) dispatchInteractions(ctx context.Context, callback *slack.InteractionCallback) {
	for _, evt := range interactionEvents(callback) {
		if err := d.bridge.HandleInteraction(ctx, evt); err != nil {
			d.logger.Warn("interaction dispatch failed",
				"surface_id", evt.SurfaceID, "node_id", evt.NodeID, "error", err)
		}
	}
}

// interactionEvents normalizes a block_actions callback into interaction
// events. The renderer embeds the node id as the action id and the surface id
// as the action value.
func interactionEvents(callback *slack.InteractionCallback) []bridge.InteractionEvent {
	if callback == nil || callback.Type != slack.InteractionTypeBlockActions {
		return nil
	}
	var events []bridge.InteractionEvent
	for _, action := range callback.ActionCallback.BlockActions {
		if action == nil || action.ActionID == "" || action.Value == "" {
			continue
		}
		events = append(events, bridge.InteractionEvent{
			SurfaceID: action.Value,
			NodeID:    action.ActionID,
			UserID:    callback.User.ID,
		})
	}
	return events
}
