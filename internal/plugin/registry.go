package plugin

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"tgalert/internal/alert"
	logx "tgalert/pkg/logx"
)

var ErrDuplicatePlugin = errors.New("plugin already registered")

// Registry is the host side of Hooks: it invokes every registered plugin in
// registration order and contains plugin panics.
type Registry struct {
	mu      sync.RWMutex
	log     logx.Logger
	plugins []Hooks
	names   map[string]bool
}

func NewRegistry(log logx.Logger) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{log: log, names: map[string]bool{}}
}

func (r *Registry) Register(p ...Hooks) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pl := range p {
		name := pl.Name()
		if r.names[name] {
			return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
		}
		r.names[name] = true
		r.plugins = append(r.plugins, pl)
		r.log.Info("plugin registered", logx.String("plugin", name))
	}
	return nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p.Name())
	}
	return out
}

func (r *Registry) snapshot() []Hooks {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Hooks(nil), r.plugins...)
}

// PreReceive chains the plugins; each one sees the previous plugin's result.
// The first error stops the chain.
func (r *Registry) PreReceive(ctx context.Context, ev *alert.Event) (*alert.Event, error) {
	for _, p := range r.snapshot() {
		var out *alert.Event
		err := r.safeCall(p.Name(), "pre_receive", func() error {
			var err error
			out, err = p.PreReceive(ctx, ev)
			return err
		})
		if err != nil {
			return nil, err
		}
		if out != nil {
			ev = out
		}
	}
	return ev, nil
}

// PostReceive runs every plugin, even after a failure, and joins the errors.
func (r *Registry) PostReceive(ctx context.Context, ev *alert.Event) error {
	var errs []error
	for _, p := range r.snapshot() {
		if err := r.safeCall(p.Name(), "post_receive", func() error { return p.PostReceive(ctx, ev) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) StatusChange(ctx context.Context, ev *alert.Event, status alert.Status, summary string) error {
	var errs []error
	for _, p := range r.snapshot() {
		err := r.safeCall(p.Name(), "status_change", func() error { return p.StatusChange(ctx, ev, status, summary) })
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) safeCall(name, hook string, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic in plugin hook",
				logx.String("plugin", name),
				logx.String("hook", hook),
				logx.Any("panic", rec),
				logx.Stack(string(debug.Stack())),
			)
			err = fmt.Errorf("plugin %s: panic in %s: %v", name, hook, rec)
		}
		r.log.Debug("plugin hook done",
			logx.String("plugin", name),
			logx.String("hook", hook),
			logx.Duration("took", time.Since(start)),
			logx.Err(err),
		)
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("plugin %s: %s: %w", name, hook, err)
	}
	return nil
}
