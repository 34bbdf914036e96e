package plugin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tgalert/internal/alert"
	logx "tgalert/pkg/logx"
)

type recorder struct {
	name    string
	calls   *[]string
	postErr error
	panics  bool
	rewrite string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) PreReceive(_ context.Context, ev *alert.Event) (*alert.Event, error) {
	*r.calls = append(*r.calls, r.name+":pre:"+ev.Resource)
	if r.rewrite == "" {
		return ev, nil
	}
	cp := *ev
	cp.Resource = r.rewrite
	return &cp, nil
}

func (r *recorder) PostReceive(_ context.Context, ev *alert.Event) error {
	*r.calls = append(*r.calls, r.name+":post")
	if r.panics {
		panic("boom")
	}
	return r.postErr
}

func (r *recorder) StatusChange(_ context.Context, _ *alert.Event, status alert.Status, _ string) error {
	*r.calls = append(*r.calls, r.name+":status:"+string(status))
	return nil
}

func TestRegistryOrderAndChaining(t *testing.T) {
	t.Parallel()
	var calls []string
	reg := NewRegistry(logx.Nop())
	if err := reg.Register(
		&recorder{name: "a", calls: &calls, rewrite: "web02"},
		&recorder{name: "b", calls: &calls},
	); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ev, err := reg.PreReceive(context.Background(), &alert.Event{Resource: "web01"})
	if err != nil {
		t.Fatalf("PreReceive: %v", err)
	}
	if ev.Resource != "web02" {
		t.Fatalf("Resource = %s, want web02", ev.Resource)
	}
	if err := reg.PostReceive(context.Background(), ev); err != nil {
		t.Fatalf("PostReceive: %v", err)
	}
	if err := reg.StatusChange(context.Background(), ev, alert.StatusAck, "ack"); err != nil {
		t.Fatalf("StatusChange: %v", err)
	}

	want := []string{"a:pre:web01", "b:pre:web02", "a:post", "b:post", "a:status:ack", "b:status:ack"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	if got := strings.Join(reg.Names(), ","); got != "a,b" {
		t.Fatalf("Names = %s", got)
	}
}

func TestRegistryPostReceiveJoinsErrorsAndRecovers(t *testing.T) {
	t.Parallel()
	var calls []string
	sentinel := errors.New("delivery failed")
	reg := NewRegistry(logx.Nop())
	_ = reg.Register(
		&recorder{name: "panicky", calls: &calls, panics: true},
		&recorder{name: "failing", calls: &calls, postErr: sentinel},
		&recorder{name: "ok", calls: &calls},
	)

	err := reg.PostReceive(context.Background(), &alert.Event{})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want to wrap sentinel", err)
	}
	if !strings.Contains(err.Error(), "panic") {
		t.Fatalf("err = %v, want panic to be reported", err)
	}
	if len(calls) != 3 {
		t.Fatalf("calls = %v, every plugin must run", calls)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()
	var calls []string
	reg := NewRegistry(logx.Nop())
	_ = reg.Register(&recorder{name: "telegram", calls: &calls})
	if err := reg.Register(&recorder{name: "telegram", calls: &calls}); !errors.Is(err, ErrDuplicatePlugin) {
		t.Fatalf("err = %v, want ErrDuplicatePlugin", err)
	}
}
