//go:build !integration

package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
)

func TestWaitForStop(t *testing.T) {
	logger := zerolog.New(io.Discard)

	t.Run("component failure is returned", func(t *testing.T) {
		errc := make(chan error, 1)
		boom := errors.New("http server: listen tcp :5000: bind: address already in use")
		errc <- boom
		if err := waitForStop(context.Background(), errc, &logger); !errors.Is(err, boom) {
			t.Fatalf("expected %v, but got: %v", boom, err)
		}
	})

	t.Run("signal shutdown is clean", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := waitForStop(ctx, make(chan error), &logger); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
	})
}
