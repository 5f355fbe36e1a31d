package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestToken_Await(t *testing.T) {
	t.Run("successful result", func(t *testing.T) {
		tok := newToken(1, "ok")

		go func() {
			time.Sleep(20 * time.Millisecond)
			tok.complete(nil)
		}()

		if err := tok.Await(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("error result", func(t *testing.T) {
		tok := newToken(2, "bad")
		want := errors.New("unit failed")

		go tok.complete(want)

		if err := tok.Await(); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	})

	t.Run("repeated awaits return the same result", func(t *testing.T) {
		tok := newToken(3, "")
		want := errors.New("sticky")
		tok.complete(want)

		for range 3 {
			if err := tok.Await(); !errors.Is(err, want) {
				t.Fatalf("expected %v, got %v", want, err)
			}
		}
	})
}

func TestToken_AwaitTimeout(t *testing.T) {
	t.Run("result before deadline", func(t *testing.T) {
		tok := newToken(1, "")
		go func() {
			time.Sleep(20 * time.Millisecond)
			tok.complete(nil)
		}()

		if err := tok.AwaitTimeout(2 * time.Second); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("deadline before result", func(t *testing.T) {
		tok := newToken(2, "")

		err := tok.AwaitTimeout(20 * time.Millisecond)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", err)
		}

		// Timing out never cancels the unit: the token can still complete
		// and be awaited again.
		tok.complete(nil)
		if err := tok.Await(); err != nil {
			t.Errorf("expected no error after completion, got %v", err)
		}
	})
}

func TestToken_AwaitContext(t *testing.T) {
	tok := newToken(1, "")
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if err := tok.AwaitContext(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestToken_TryResult(t *testing.T) {
	tok := newToken(1, "")

	if _, ready := tok.TryResult(); ready {
		t.Error("expected not ready before completion")
	}
	if tok.IsReady() {
		t.Error("expected IsReady false before completion")
	}

	want := errors.New("done")
	tok.complete(want)

	err, ready := tok.TryResult()
	if !ready {
		t.Fatal("expected ready after completion")
	}
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
	if !tok.IsReady() {
		t.Error("expected IsReady true after completion")
	}
}

func TestToken_DoneSelectable(t *testing.T) {
	tok := newToken(1, "")

	select {
	case <-tok.Done():
		t.Fatal("Done should not be closed yet")
	case <-time.After(20 * time.Millisecond):
	}

	tok.complete(nil)

	select {
	case <-tok.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done should be closed after completion")
	}
}

func TestToken_Metadata(t *testing.T) {
	tok := newToken(7, "resize-7")

	if tok.ID() != 7 {
		t.Errorf("expected id 7, got %d", tok.ID())
	}
	if tok.Label() != "resize-7" {
		t.Errorf("expected label %q, got %q", "resize-7", tok.Label())
	}
}
