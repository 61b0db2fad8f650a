package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Proposal is one candidate date of a meetup as stored by the API.
type Proposal struct {
	ID         string
	TripID     string
	Date       time.Time
	CreatedBy  string
	VotesCount int
}

type proposalDTO struct {
	ID                 string `json:"id,omitempty"`
	Trip               string `json:"trip"`
	Date               string `json:"date"`
	CreatedByDiscordID string `json:"created_by_discord_id"`
	VotesCount         int    `json:"votes_count,omitempty"`
}

func (d proposalDTO) toProposal() (Proposal, error) {
	date, err := parseDate(d.Date)
	if err != nil {
		return Proposal{}, fmt.Errorf("proposal %s date: %w", d.ID, err)
	}
	return Proposal{ID: d.ID, TripID: d.Trip, Date: date, CreatedBy: d.CreatedByDiscordID, VotesCount: d.VotesCount}, nil
}

type voteDTO struct {
	ID            string `json:"id,omitempty"`
	Proposal      string `json:"proposal,omitempty"`
	UserDiscordID string `json:"user_discord_id"`
}

// ListProposals returns a meetup's candidate dates ordered by date.
func (c *Client) ListProposals(ctx context.Context, tripID string) ([]Proposal, error) {
	var dtos []proposalDTO
	q := url.Values{"trip": {tripID}}
	if err := c.do(ctx, "list_proposals", http.MethodGet, "/date_proposals/", q, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]Proposal, 0, len(dtos))
	for _, d := range dtos {
		p, err := d.toProposal()
		if err != nil {
			return nil, fmt.Errorf("list_proposals: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// CreateProposal proposes date for a meetup. The API keeps one proposal
// per (trip, date).
func (c *Client) CreateProposal(ctx context.Context, tripID string, date time.Time, createdBy string) (Proposal, error) {
	body := proposalDTO{Trip: tripID, Date: date.UTC().Format(time.DateOnly), CreatedByDiscordID: createdBy}
	var dto proposalDTO
	if err := c.do(ctx, "create_proposal", http.MethodPost, "/date_proposals/", nil, body, &dto); err != nil {
		return Proposal{}, err
	}
	return dto.toProposal()
}

// DeleteProposal withdraws a candidate date along with its votes.
func (c *Client) DeleteProposal(ctx context.Context, proposalID string) error {
	return c.do(ctx, "delete_proposal", http.MethodDelete, "/date_proposals/"+url.PathEscape(proposalID)+"/", nil, nil, nil)
}

// Votes returns the voter ids of a proposal.
func (c *Client) Votes(ctx context.Context, proposalID string) ([]string, error) {
	var dtos []voteDTO
	if err := c.do(ctx, "list_votes", http.MethodGet, "/date_proposals/"+url.PathEscape(proposalID)+"/votes/", nil, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dtos))
	for _, v := range dtos {
		out = append(out, v.UserDiscordID)
	}
	return out, nil
}

// Vote records discordID's vote. Voting twice is harmless.
func (c *Client) Vote(ctx context.Context, proposalID, discordID string) error {
	return c.do(ctx, "vote", http.MethodPost, "/date_proposals/"+url.PathEscape(proposalID)+"/vote/", nil,
		voteDTO{UserDiscordID: discordID}, nil)
}

// Unvote removes discordID's vote if present.
func (c *Client) Unvote(ctx context.Context, proposalID, discordID string) error {
	return c.do(ctx, "unvote", http.MethodPost, "/date_proposals/"+url.PathEscape(proposalID)+"/unvote/", nil,
		voteDTO{UserDiscordID: discordID}, nil)
}
