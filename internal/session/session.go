// Package session persists the signed-in identity and runs the one-time
// token sign-in flow.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/alecgard/tripboard/internal/crypto"
	"github.com/alecgard/tripboard/internal/directory"
	"github.com/alecgard/tripboard/internal/state"
)

const minTokenLen = 10

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownUser  = errors.New("user not found")
)

var accountName = regexp.MustCompile(`^[a-zA-Z0-9]{3,20}$`)

// AuthUser is the persisted session record.
type AuthUser struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"displayName"`
	DiscordID       string    `json:"discordId"`
	DiscordTag      string    `json:"discordTag"`
	Avatar          string    `json:"avatar"`
	AuthenticatedAt time.Time `json:"authenticatedAt"`
}

// Identity returns the discord id, or "" for a nil user.
func (u *AuthUser) Identity() string {
	if u == nil {
		return ""
	}
	return u.DiscordID
}

// Verifier exchanges a one-time token for a discord id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// StaticVerifier accepts every token and resolves it to one configured
// account. It stands in until the API exposes token verification.
type StaticVerifier struct {
	DiscordID string
}

func (v StaticVerifier) Verify(context.Context, string) (string, error) {
	if v.DiscordID == "" {
		return "", ErrUnknownUser
	}
	return v.DiscordID, nil
}

// Profiles is the part of the user directory the session needs.
type Profiles interface {
	Ensure(ctx context.Context) error
	Lookup(discordID string) (directory.Profile, bool)
	Search(ctx context.Context, q string) ([]directory.Profile, error)
}

// Manager loads and stores the session record.
type Manager struct {
	store    state.Store
	cipher   *crypto.Cipher
	profiles Profiles
	verifier Verifier
	now      func() time.Time
}

// NewManager wires a Manager. cipher may be nil to store the record in
// clear text.
func NewManager(store state.Store, cipher *crypto.Cipher, profiles Profiles, verifier Verifier) *Manager {
	return &Manager{
		store:    store,
		cipher:   cipher,
		profiles: profiles,
		verifier: verifier,
		now:      time.Now,
	}
}

// Current returns the signed-in user, or nil. Display fields are
// refreshed from the directory when it knows the user. An unreadable
// record counts as signed out.
func (m *Manager) Current(ctx context.Context) (*AuthUser, error) {
	raw, ok, err := m.store.Get(ctx, state.KeySession)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	plain, err := m.cipher.Open(state.KeySession, raw)
	if err != nil {
		slog.Warn("discarding unreadable session", "error", err)
		return nil, nil
	}
	var u AuthUser
	if err := json.Unmarshal(plain, &u); err != nil {
		slog.Warn("discarding malformed session", "error", err)
		return nil, nil
	}

	if p, ok := m.profiles.Lookup(u.DiscordID); ok {
		u.Avatar = p.Avatar
		u.DisplayName = p.DisplayName
		u.Username = p.Username
	}
	return &u, nil
}

// Save persists u.
func (m *Manager) Save(ctx context.Context, u AuthUser) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	sealed, err := m.cipher.Seal(state.KeySession, data)
	if err != nil {
		return fmt.Errorf("sealing session: %w", err)
	}
	if err := m.store.Put(ctx, state.KeySession, sealed); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear signs out.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, state.KeySession); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Verify completes sign-in with a one-time token and persists the result.
func (m *Manager) Verify(ctx context.Context, token string) (*AuthUser, error) {
	if len(strings.TrimSpace(token)) < minTokenLen {
		return nil, ErrInvalidToken
	}
	id, err := m.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}
	return m.Confirm(ctx, id)
}

// Confirm signs in as discordID directly, as the confirm step of the
// direct-message flow does.
func (m *Manager) Confirm(ctx context.Context, discordID string) (*AuthUser, error) {
	if err := m.profiles.Ensure(ctx); err != nil {
		return nil, err
	}
	p, ok := m.profiles.Lookup(discordID)
	if !ok {
		return nil, ErrUnknownUser
	}
	u := AuthUser{
		ID:              p.DiscordID,
		Username:        p.Username,
		DisplayName:     p.DisplayName,
		DiscordID:       p.DiscordID,
		DiscordTag:      p.Tag(),
		Avatar:          p.Avatar,
		AuthenticatedAt: m.now().UTC(),
	}
	if err := m.Save(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindAccounts looks up sign-in candidates by account name prefix. Names
// must be 3 to 20 ASCII letters or digits; anything else finds nobody.
func (m *Manager) FindAccounts(ctx context.Context, name string) ([]directory.Profile, error) {
	if !accountName.MatchString(name) {
		return nil, nil
	}
	found, err := m.profiles.Search(ctx, name)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(name)
	out := found[:0]
	for _, p := range found {
		if strings.HasPrefix(strings.ToLower(p.Username), lower) {
			out = append(out, p)
		}
	}
	return out, nil
}
