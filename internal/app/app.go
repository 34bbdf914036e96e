// Package app wires configuration, logging, the Telegram client, the
// notification plugin and the HTTP ingress into one process.
package app

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"

	"tgalert/internal/alerta"
	"tgalert/internal/config"
	"tgalert/internal/notify"
	"tgalert/internal/plugin"
	"tgalert/internal/runtime/supervisor"
	"tgalert/internal/server"
	"tgalert/internal/transport/telegram"
	logx "tgalert/pkg/logx"
)

type App struct {
	cfg *config.Config

	log  logx.Logger
	logs *logx.Service

	client   *telegram.Client
	registry *plugin.Registry
	server   *server.Server
	sup      *supervisor.Supervisor
}

// NewApp loads cfgPath (may be empty: environment only) and builds the app.
// A bad token, an unreachable Bot API or an invalid template fails here.
func NewApp(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return New(cfg)
}

// New builds the app from an already validated config.
func New(cfg *config.Config) (*App, error) {
	logs, log := logx.New(mapLogConfig(cfg))
	a := &App{cfg: cfg, log: log, logs: logs}
	if err := a.build(); err != nil {
		_ = logs.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	tcfg, err := mapTelegramConfig(a.cfg)
	if err != nil {
		return err
	}
	client, err := telegram.New(tcfg, a.log.With(logx.String("comp", "telegram")))
	if err != nil {
		return err
	}
	a.client = client

	p, err := notify.New(mapNotifyConfig(a.cfg), client, a.log.With(logx.String("comp", "notify")))
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	a.registry = plugin.NewRegistry(a.log.With(logx.String("comp", "plugins")))
	if err := a.registry.Register(p); err != nil {
		return err
	}

	if !a.cfg.Server.Enabled {
		return nil
	}
	scfg, err := mapServerConfig(a.cfg)
	if err != nil {
		return err
	}
	var opts []server.Option
	acfg, ok, err := mapAlertaConfig(a.cfg)
	if err != nil {
		return err
	}
	if ok {
		ac, err := alerta.New(acfg, a.log.With(logx.String("comp", "alerta")))
		if err != nil {
			return err
		}
		opts = append(opts, server.WithActions(ac, client))
	} else if a.cfg.Telegram.WebhookURL != "" {
		a.log.Warn("telegram webhook configured without alerta.api_url; button presses will not be handled")
	}
	a.server = server.New(scfg, a.registry, a.log.With(logx.String("comp", "http")), opts...)
	return nil
}

// Registry is the hook surface for hosts embedding the adapter.
func (a *App) Registry() *plugin.Registry { return a.registry }

// Start registers the webhook and launches the HTTP ingress. It does not block.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	if url := a.cfg.Telegram.WebhookURL; url != "" {
		// Buttons stop working without it, but notifications still go out.
		if err := a.client.EnsureWebhook(ctx, url, a.cfg.Telegram.WebhookSecret); err != nil {
			a.log.Error("telegram webhook registration failed", logx.String("url", url), logx.Err(err))
		}
	}
	if a.server != nil {
		a.sup.Go("http", a.server.Run)
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify ready sent")
	}
	a.log.Info("started",
		logx.Strs("plugins", a.registry.Names()),
		logx.Bool("http", a.server != nil),
	)
	return nil
}

// Done is closed when the app context is cancelled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	a.log.Info("stopped")
	if cerr := a.logs.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
