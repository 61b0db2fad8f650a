package remote

import (
	"context"
	"net/http"
	"net/url"
)

// NotificationCount is the server-side inbox tally for one user.
type NotificationCount struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

// NotificationCount asks the API how many notifications discordID has.
func (c *Client) NotificationCount(ctx context.Context, discordID string) (NotificationCount, error) {
	var out NotificationCount
	q := url.Values{"user_discord_id": {discordID}}
	if err := c.do(ctx, "notification_count", http.MethodGet, "/notifications/count/", q, nil, &out); err != nil {
		return NotificationCount{}, err
	}
	return out, nil
}

// MarkAllRead marks every notification of discordID as read.
func (c *Client) MarkAllRead(ctx context.Context, discordID string) error {
	body := map[string]string{"user_discord_id": discordID}
	return c.do(ctx, "mark_all_read", http.MethodPost, "/notifications/mark_all_read/", nil, body, nil)
}

// TripReminder is the payload of the reminder direct-message hook.
type TripReminder struct {
	TripID       string   `json:"tripId"`
	Timing       string   `json:"timing"`
	Participants []string `json:"participants"`
}

// SendTripNotification asks the API to message a trip's participants.
func (c *Client) SendTripNotification(ctx context.Context, r TripReminder) error {
	return c.do(ctx, "send_trip_notification", http.MethodPost, "/discord/send-trip-notification/", nil, r, nil)
}
