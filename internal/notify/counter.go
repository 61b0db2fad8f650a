// Package notify keeps the unread counter, turns newly observed trips into
// notices and fires day-before and same-day reminders.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/alecgard/tripboard/internal/filter"
	"github.com/alecgard/tripboard/internal/state"
)

// MetricsRecorder is implemented by metrics.Metrics. Methods may be
// called concurrently.
type MetricsRecorder interface {
	SetUnread(n int)
	IncReminder(timing string)
}

// Counter is the persisted unread count. It never goes below zero.
type Counter struct {
	store   state.Store
	mu      sync.Mutex
	metrics MetricsRecorder
}

func NewCounter(store state.Store) *Counter {
	return &Counter{store: store}
}

// SetMetrics attaches a recorder for the unread gauge.
func (c *Counter) SetMetrics(m MetricsRecorder) {
	c.metrics = m
}

// Get returns the count. A missing or unparsable value reads as zero.
func (c *Counter) Get(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(ctx)
}

func (c *Counter) get(ctx context.Context) (int, error) {
	raw, ok, err := c.store.Get(ctx, state.KeyUnreadCount)
	if err != nil {
		return 0, fmt.Errorf("reading unread count: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

func (c *Counter) set(ctx context.Context, n int) error {
	if n < 0 {
		n = 0
	}
	if err := c.store.Put(ctx, state.KeyUnreadCount, []byte(strconv.Itoa(n))); err != nil {
		return fmt.Errorf("writing unread count: %w", err)
	}
	if c.metrics != nil {
		c.metrics.SetUnread(n)
	}
	return nil
}

// Set stores n, clamped at zero.
func (c *Counter) Set(ctx context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(ctx, n)
}

// Increment adds one and returns the new count.
func (c *Counter) Increment(ctx context.Context) (int, error) {
	return c.add(ctx, 1)
}

// Decrement removes one, as opening a single notice does.
func (c *Counter) Decrement(ctx context.Context) (int, error) {
	return c.add(ctx, -1)
}

func (c *Counter) add(ctx context.Context, delta int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.get(ctx)
	if err != nil {
		return 0, err
	}
	n += delta
	if n < 0 {
		n = 0
	}
	return n, c.set(ctx, n)
}

// Clear zeroes the count.
func (c *Counter) Clear(ctx context.Context) error {
	return c.Set(ctx, 0)
}

// ViewOpened zeroes the count when the everyone list is shown. It
// reports whether the count was cleared.
func (c *Counter) ViewOpened(ctx context.Context, v filter.View) (bool, error) {
	if v != filter.ViewEveryone {
		return false, nil
	}
	return true, c.Clear(ctx)
}
