package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Comment is a message on a trip's discussion thread.
type Comment struct {
	ID            string    `json:"id,omitempty"`
	TripID        string    `json:"trip"`
	UserDiscordID string    `json:"user_discord_id"`
	UserName      string    `json:"user_name"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// ListComments returns a trip's comments, oldest first.
func (c *Client) ListComments(ctx context.Context, tripID string) ([]Comment, error) {
	var out []Comment
	if err := c.do(ctx, "list_comments", http.MethodGet, "/comments/", url.Values{"trip": {tripID}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateComment posts a comment and returns the stored record.
func (c *Client) CreateComment(ctx context.Context, cm Comment) (Comment, error) {
	body := map[string]string{
		"trip":            cm.TripID,
		"user_discord_id": cm.UserDiscordID,
		"user_name":       cm.UserName,
		"content":         cm.Content,
	}
	var out Comment
	if err := c.do(ctx, "create_comment", http.MethodPost, "/comments/", nil, body, &out); err != nil {
		return Comment{}, err
	}
	return out, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.do(ctx, "delete_comment", http.MethodDelete, "/comments/"+url.PathEscape(id)+"/", nil, nil, nil)
}
