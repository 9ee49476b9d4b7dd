package cache

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// unreachableAddr returns an address nothing is listening on.
func unreachableAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func TestRedisConnectionErrorIsNotAMiss(t *testing.T) {
	c := NewRedis(Options{Addr: unreachableAddr(t)})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Get(ctx, "report:assets:abc")
	if err == nil {
		t.Fatalf("expected error from unreachable server")
	}
	if errors.Is(err, ErrCacheMiss) {
		t.Fatalf("connection failure reported as cache miss: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Fatalf("expected Set error from unreachable server")
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatalf("expected Ping error from unreachable server")
	}
}
