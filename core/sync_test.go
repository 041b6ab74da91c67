package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elum-utils/moderator/adapters/storage"
	"github.com/elum-utils/moderator/classifier"
	"github.com/elum-utils/moderator/models"
)

type failingStorage struct{ *storage.MemoryAdapter }

func (failingStorage) GetTokens(context.Context) ([]string, error) {
	return nil, errors.New("db down")
}

func TestSyncOnceExtendsDefaults(t *testing.T) {
	st := storage.NewMemoryAdapter()
	_ = st.AddToken(context.Background(), "casino")
	gw := newMockGateway()
	c := New(Options{Gateway: gw, Storage: st})
	if err := c.SyncOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.MarkerCount() != len(classifier.DefaultMarkers)+1 {
		t.Fatalf("unexpected marker count: %d", c.MarkerCount())
	}
	msg := adMessage(1)
	msg.Text = "best CASINO in town"
	out, err := c.ProcessMessage(context.Background(), msg)
	if err != nil || out != models.Warned(1) {
		t.Fatalf("stored marker must flag: out=%v err=%v", out, err)
	}
}

func TestSyncOnceErrors(t *testing.T) {
	c := New(Options{Gateway: newMockGateway()})
	if err := c.SyncOnce(context.Background()); err == nil {
		t.Fatalf("expected nil storage error")
	}
	c = New(Options{Gateway: newMockGateway(), Storage: failingStorage{storage.NewMemoryAdapter()}})
	if err := c.Run(context.Background()); err == nil {
		t.Fatalf("expected initial sync error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	st := storage.NewMemoryAdapter()
	c := New(Options{Gateway: newMockGateway(), Storage: st, SyncInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	c = New(Options{Gateway: newMockGateway()})
	ctx2, cancel2 := context.WithCancel(context.Background())
	cancel2()
	if err := c.Run(ctx2); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled without storage, got %v", err)
	}
}
