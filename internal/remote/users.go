package remote

import (
	"context"
	"net/http"
	"net/url"
)

// User is a directory entry as served by /users/.
type User struct {
	ID            string `json:"id"`
	DiscordID     string `json:"discord_id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	Discriminator string `json:"discriminator,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	IsActive      bool   `json:"is_active"`
}

// ListUsers returns every user, or those matching search when non-empty.
func (c *Client) ListUsers(ctx context.Context, search string) ([]User, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	var out []User
	if err := c.do(ctx, "list_users", http.MethodGet, "/users/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUser fetches one user by API id.
func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	var out User
	if err := c.do(ctx, "get_user", http.MethodGet, "/users/"+url.PathEscape(id)+"/", nil, nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}
