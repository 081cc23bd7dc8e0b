package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("miss err=%v", err)
	}
	v := []byte("value")
	if err := m.Set(ctx, "k", v, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	v[0] = 'X'
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "value" {
		t.Fatalf("got %q err=%v", got, err)
	}
	got[0] = 'Y'
	if again, _ := m.Get(ctx, "k"); string(again) != "value" {
		t.Fatalf("stored value mutated through Get: %q", again)
	}
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	m := NewMemory(0)
	m.now = func() time.Time { return now }
	_ = m.Set(ctx, "k", []byte("v"), time.Minute)
	if _, err := m.Get(ctx, "k"); err != nil {
		t.Fatalf("fresh entry: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired entry err=%v", err)
	}
}

func TestMemory_MaxEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	m := NewMemory(3)
	m.now = func() time.Time { return now }
	_ = m.Set(ctx, "forever", []byte("1"), 0)
	_ = m.Set(ctx, "soon", []byte("2"), time.Second)
	_ = m.Set(ctx, "later", []byte("3"), time.Hour)
	_ = m.Set(ctx, "new", []byte("4"), time.Hour)
	if m.Len() != 3 {
		t.Fatalf("len=%d", m.Len())
	}
	if _, err := m.Get(ctx, "soon"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("entry closest to expiry should be evicted, err=%v", err)
	}
	for _, k := range []string{"forever", "later", "new"} {
		if _, err := m.Get(ctx, k); err != nil {
			t.Fatalf("%s: %v", k, err)
		}
	}
	// overwriting an existing key never evicts
	_ = m.Set(ctx, "new", []byte("5"), time.Hour)
	if m.Len() != 3 {
		t.Fatalf("len after overwrite=%d", m.Len())
	}
}

func TestMemory_EvictsExpiredFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	m := NewMemory(2)
	m.now = func() time.Time { return now }
	_ = m.Set(ctx, "a", []byte("a"), time.Second)
	_ = m.Set(ctx, "b", []byte("b"), time.Second)
	now = now.Add(time.Minute)
	_ = m.Set(ctx, "c", []byte("c"), 0)
	if m.Len() != 1 {
		t.Fatalf("len=%d", m.Len())
	}
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(16)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				k := fmt.Sprintf("k%d", (i*j)%32)
				_ = m.Set(ctx, k, []byte(k), time.Minute)
				_, _ = m.Get(ctx, k)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if m.Len() > 16 {
		t.Fatalf("len=%d exceeds max", m.Len())
	}
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()
	for _, b := range []string{"", "none", "OFF"} {
		c, err := New(ctx, Options{Backend: b})
		if err != nil || c != nil {
			t.Fatalf("%q: c=%v err=%v", b, c, err)
		}
	}
	c, err := New(ctx, Options{Backend: "memory", MaxEntries: 4})
	if err != nil || c.Name() != "memory" {
		t.Fatalf("memory: c=%v err=%v", c, err)
	}
	if _, err := New(ctx, Options{Backend: "memcached"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if _, err := New(ctx, Options{Backend: "redis"}); err == nil {
		t.Fatalf("expected error for redis without address")
	}
}

func TestRedis_KeyPrefix(t *testing.T) {
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "")
	defer r.Close()
	if r.Name() != "redis" || r.key("abc") != "skinsrv:abc" {
		t.Fatalf("name=%s key=%s", r.Name(), r.key("abc"))
	}
	if NewRedisFromClient(r.client, "x/").key("abc") != "x/abc" {
		t.Fatalf("custom prefix ignored")
	}
}

func TestRedis_UnreachableIsNotAMiss(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}), "t:")
	defer r.Close()
	if _, err := r.Get(ctx, "k"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}
