package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alecgard/tripboard/internal/trip"
)

// tripDTO is the wire shape of a trip.
type tripDTO struct {
	ID                 string     `json:"id,omitempty"`
	Type               string     `json:"type"`
	UserDiscordID      string     `json:"user_discord_id"`
	UserName           string     `json:"user_name"`
	UserAvatar         string     `json:"user_avatar"`
	Country            string     `json:"country"`
	City               string     `json:"city"`
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	Description        string     `json:"description"`
	IsRecruitment      bool       `json:"is_recruitment"`
	RecruitmentDetails string     `json:"recruitment_details"`
	MinParticipants    *int       `json:"min_participants"`
	MaxParticipants    *int       `json:"max_participants"`
	Participants       []string   `json:"participants"`
	IsHidden           bool       `json:"is_hidden"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

func toDTO(t trip.Trip) tripDTO {
	kind := t.Kind
	if kind == "" {
		kind = trip.KindTrip
	}
	participants := t.Participants
	if participants == nil {
		participants = []string{}
	}
	return tripDTO{
		ID:                 t.ID,
		Type:               string(kind),
		UserDiscordID:      t.OwnerID,
		UserName:           t.UserName,
		UserAvatar:         t.UserAvatar,
		Country:            t.Country,
		City:               t.City,
		StartDate:          formatDate(t.Start),
		EndDate:            formatDate(t.End),
		Description:        t.Description,
		IsRecruitment:      t.IsRecruitment,
		RecruitmentDetails: t.RecruitmentDetails,
		MinParticipants:    t.MinParticipants,
		MaxParticipants:    t.MaxParticipants,
		Participants:       participants,
		IsHidden:           t.IsHidden,
	}
}

func (d tripDTO) toTrip() (trip.Trip, error) {
	start, err := parseDate(d.StartDate)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("trip %s start_date: %w", d.ID, err)
	}
	end, err := parseDate(d.EndDate)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("trip %s end_date: %w", d.ID, err)
	}
	kind := trip.Kind(d.Type)
	if !kind.Valid() {
		kind = trip.KindTrip
	}
	participants := d.Participants
	if participants == nil {
		participants = []string{}
	}
	t := trip.Trip{
		ID:                 d.ID,
		Kind:               kind,
		OwnerID:            d.UserDiscordID,
		UserName:           d.UserName,
		UserAvatar:         d.UserAvatar,
		Country:            d.Country,
		City:               d.City,
		Start:              start,
		End:                end,
		Description:        d.Description,
		IsRecruitment:      d.IsRecruitment,
		RecruitmentDetails: d.RecruitmentDetails,
		MinParticipants:    d.MinParticipants,
		MaxParticipants:    d.MaxParticipants,
		Participants:       participants,
		IsHidden:           d.IsHidden,
	}
	if d.CreatedAt != nil {
		t.CreatedAt = *d.CreatedAt
	}
	if d.UpdatedAt != nil {
		t.UpdatedAt = *d.UpdatedAt
	}
	return t, nil
}

// formatDate sends the calendar date of t in its own zone. start_date and
// end_date are date fields for both kinds, so a meetup's time of day is
// not sent.
func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// ListOptions narrows GET /trips/. Zero fields are not sent.
type ListOptions struct {
	Kind        trip.Kind
	Recruitment *bool
	Hidden      *bool
	Country     string
	City        string
	OwnerID     string
	Search      string
	StartFrom   time.Time
	StartTo     time.Time
	Ordering    string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Kind != "" {
		q.Set("type", string(o.Kind))
	}
	if o.Recruitment != nil {
		q.Set("is_recruitment", strconv.FormatBool(*o.Recruitment))
	}
	if o.Hidden != nil {
		q.Set("is_hidden", strconv.FormatBool(*o.Hidden))
	}
	if o.Country != "" {
		q.Set("country", o.Country)
	}
	if o.City != "" {
		q.Set("city", o.City)
	}
	if o.OwnerID != "" {
		q.Set("user_discord_id", o.OwnerID)
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if !o.StartFrom.IsZero() {
		q.Set("start_date_gte", o.StartFrom.Format(time.DateOnly))
	}
	if !o.StartTo.IsZero() {
		q.Set("start_date_lte", o.StartTo.Format(time.DateOnly))
	}
	if o.Ordering != "" {
		q.Set("ordering", o.Ordering)
	}
	return q
}

// ListTrips returns raw (unnormalized) trips.
func (c *Client) ListTrips(ctx context.Context, opts ListOptions) ([]trip.Trip, error) {
	var dtos []tripDTO
	if err := c.do(ctx, "list_trips", http.MethodGet, "/trips/", opts.values(), nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]trip.Trip, 0, len(dtos))
	for _, d := range dtos {
		t, err := d.toTrip()
		if err != nil {
			return nil, fmt.Errorf("list_trips: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTrip fetches one trip.
func (c *Client) GetTrip(ctx context.Context, id string) (trip.Trip, error) {
	return c.tripCall(ctx, "get_trip", http.MethodGet, "/trips/"+url.PathEscape(id)+"/", nil)
}

// CreateTrip posts a new trip and returns the stored record.
func (c *Client) CreateTrip(ctx context.Context, t trip.Trip) (trip.Trip, error) {
	dto := toDTO(t)
	dto.ID = ""
	return c.tripCall(ctx, "create_trip", http.MethodPost, "/trips/", dto)
}

// UpdateTrip replaces the editable fields of an existing trip.
func (c *Client) UpdateTrip(ctx context.Context, t trip.Trip) (trip.Trip, error) {
	return c.tripCall(ctx, "update_trip", http.MethodPatch, "/trips/"+url.PathEscape(t.ID)+"/", toDTO(t))
}

// DeleteTrip removes a trip.
func (c *Client) DeleteTrip(ctx context.Context, id string) error {
	return c.do(ctx, "delete_trip", http.MethodDelete, "/trips/"+url.PathEscape(id)+"/", nil, nil, nil)
}

type discordIDBody struct {
	DiscordID string `json:"discord_id"`
}

// Join adds discordID to the trip's participants on the server.
func (c *Client) Join(ctx context.Context, tripID, discordID string) (trip.Trip, error) {
	return c.actionCall(ctx, "join_trip", tripID, "join", discordIDBody{DiscordID: discordID})
}

// Leave removes discordID from the trip's participants on the server.
func (c *Client) Leave(ctx context.Context, tripID, discordID string) (trip.Trip, error) {
	return c.actionCall(ctx, "leave_trip", tripID, "leave", discordIDBody{DiscordID: discordID})
}

// ToggleRecruitment sets is_recruitment, or flips it when on is nil.
func (c *Client) ToggleRecruitment(ctx context.Context, tripID string, on *bool) (trip.Trip, error) {
	body := map[string]any{}
	if on != nil {
		body["is_recruitment"] = *on
	}
	return c.actionCall(ctx, "toggle_recruitment", tripID, "toggle_recruitment", body)
}

// EndRecruitment clears recruitment on the server. Participants are kept.
func (c *Client) EndRecruitment(ctx context.Context, tripID string) (trip.Trip, error) {
	return c.actionCall(ctx, "end_recruitment", tripID, "end_recruitment", map[string]any{})
}

// ToggleHidden sets is_hidden, or flips it when hidden is nil.
func (c *Client) ToggleHidden(ctx context.Context, tripID string, hidden *bool) (trip.Trip, error) {
	body := map[string]any{}
	if hidden != nil {
		body["is_hidden"] = *hidden
	}
	return c.actionCall(ctx, "toggle_hidden", tripID, "toggle_hidden", body)
}

// actionCall posts to a detail action. Some actions answer with a status
// message instead of the record; the trip is then fetched again.
func (c *Client) actionCall(ctx context.Context, op, tripID, action string, body any) (trip.Trip, error) {
	t, err := c.tripCall(ctx, op, http.MethodPost, "/trips/"+url.PathEscape(tripID)+"/"+action+"/", body)
	if err != nil {
		return trip.Trip{}, err
	}
	if t.ID == "" {
		return c.GetTrip(ctx, tripID)
	}
	return t, nil
}

func (c *Client) tripCall(ctx context.Context, op, method, path string, body any) (trip.Trip, error) {
	var dto tripDTO
	if err := c.do(ctx, op, method, path, nil, body, &dto); err != nil {
		return trip.Trip{}, err
	}
	if dto.ID == "" {
		return trip.Trip{}, nil
	}
	t, err := dto.toTrip()
	if err != nil {
		return trip.Trip{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}
