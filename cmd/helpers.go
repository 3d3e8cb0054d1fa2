package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dayuer/simplex-bot-go/internal/client"
	"github.com/dayuer/simplex-bot-go/internal/config"
	"github.com/dayuer/simplex-bot-go/internal/metrics"
)

// connectClient dials the chat daemon described by the loaded config.
func connectClient(ctx context.Context, m *metrics.Metrics) (*client.Client, error) {
	c, err := client.Connect(ctx, clientOptions(cfg, m))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Client.URL, err)
	}
	return c, nil
}

func clientOptions(cfg config.Config, m *metrics.Metrics) client.Options {
	return client.Options{
		URL:            cfg.Client.URL,
		Timeout:        cfg.Client.Timeout(),
		EventQueueSize: cfg.Client.EventQueueSize,
		Logger:         logger,
		Metrics:        m,
	}
}

func networkSettings(n *config.NetworkConfig) client.NetworkSettings {
	if n == nil {
		return client.NetworkSettings{}
	}
	return client.NetworkSettings{
		Socks:            n.Socks,
		SocksMode:        n.SocksMode,
		SMPProxy:         n.SMPProxy,
		SMPProxyFallback: n.SMPProxyFallback,
		Timeout:          n.Timeout,
	}
}

// printJSON writes raw JSON indented, falling back to the raw bytes.
func printJSON(w io.Writer, raw json.RawMessage) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Fprintln(w, string(raw))
		return
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(w, string(raw))
		return
	}
	fmt.Fprintln(w, string(out))
}

func yesNo(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}
