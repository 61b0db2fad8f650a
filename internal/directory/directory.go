// Package directory caches the user directory keyed by discord id.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/alecgard/tripboard/internal/remote"
)

// Profile is the public face of a user.
type Profile struct {
	DiscordID     string `json:"discordId"`
	Username      string `json:"username"`
	DisplayName   string `json:"displayName"`
	Avatar        string `json:"avatar"`
	Discriminator string `json:"discriminator,omitempty"`
}

// Tag returns username#discriminator, or just the username when no
// discriminator is known.
func (p Profile) Tag() string {
	if p.Discriminator == "" {
		return p.Username
	}
	return p.Username + "#" + p.Discriminator
}

func fromUser(u remote.User) Profile {
	return Profile{
		DiscordID:     u.DiscordID,
		Username:      u.Username,
		DisplayName:   u.DisplayName,
		Avatar:        u.Avatar,
		Discriminator: u.Discriminator,
	}
}

// Source lists users from the API.
type Source interface {
	ListUsers(ctx context.Context, search string) ([]remote.User, error)
}

// Cache is an optional second tier consulted before the API.
type Cache interface {
	Get(ctx context.Context) ([]Profile, bool, error)
	Set(ctx context.Context, profiles []Profile) error
}

// Directory is filled on first use. Concurrent first callers share one
// fetch.
type Directory struct {
	src   Source
	cache Cache
	group singleflight.Group

	mu       sync.RWMutex
	profiles map[string]Profile
	loaded   bool
}

func New(src Source) *Directory {
	return &Directory{src: src, profiles: make(map[string]Profile)}
}

// SetCache installs a cache tier. Call before first use.
func (d *Directory) SetCache(c Cache) {
	d.cache = c
}

// Ensure loads the directory unless it already holds entries.
func (d *Directory) Ensure(ctx context.Context) error {
	d.mu.RLock()
	done := d.loaded && len(d.profiles) > 0
	d.mu.RUnlock()
	if done {
		return nil
	}

	_, err, _ := d.group.Do("load", func() (any, error) {
		return nil, d.load(ctx, true)
	})
	return err
}

// Refresh refetches from the API, bypassing the cache, and replaces the
// map wholesale.
func (d *Directory) Refresh(ctx context.Context) error {
	_, err, _ := d.group.Do("refresh", func() (any, error) {
		return nil, d.load(ctx, false)
	})
	return err
}

func (d *Directory) load(ctx context.Context, useCache bool) error {
	if useCache && d.cache != nil {
		profiles, ok, err := d.cache.Get(ctx)
		if err != nil {
			slog.Warn("user cache read failed", "error", err)
		}
		if ok && len(profiles) > 0 {
			d.replace(profiles)
			return nil
		}
	}

	users, err := d.src.ListUsers(ctx, "")
	if err != nil {
		return fmt.Errorf("loading users: %w", err)
	}
	profiles := make([]Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, fromUser(u))
	}
	d.replace(profiles)

	if d.cache != nil {
		if err := d.cache.Set(ctx, profiles); err != nil {
			slog.Warn("user cache write failed", "error", err)
		}
	}
	return nil
}

func (d *Directory) replace(profiles []Profile) {
	m := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		if p.DiscordID == "" {
			continue
		}
		m[p.DiscordID] = p
	}
	d.mu.Lock()
	d.profiles = m
	d.loaded = true
	d.mu.Unlock()
}

// Lookup returns the cached profile for discordID.
func (d *Directory) Lookup(discordID string) (Profile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[discordID]
	return p, ok
}

// DisplayFor satisfies trip.ProfileLookup.
func (d *Directory) DisplayFor(discordID string) (string, string, bool) {
	p, ok := d.Lookup(discordID)
	if !ok {
		return "", "", false
	}
	return p.DisplayName, p.Avatar, true
}

// Len reports the number of cached profiles.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.profiles)
}

// Search asks the API for users matching q. An empty query returns nil.
func (d *Directory) Search(ctx context.Context, q string) ([]Profile, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	users, err := d.src.ListUsers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	out := make([]Profile, 0, len(users))
	for _, u := range users {
		out = append(out, fromUser(u))
	}
	return out, nil
}
