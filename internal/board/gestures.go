package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alecgard/tripboard/internal/filter"
	"github.com/alecgard/tripboard/internal/remote"
	"github.com/alecgard/tripboard/internal/trip"
)

// CreateTrip validates in and posts a new trip owned by the viewer.
func (b *Board) CreateTrip(ctx context.Context, in trip.TripInput) (out trip.Trip, err error) {
	defer func() { err = b.finish("create_trip", err) }()

	actor, err := b.begin(ctx, "create_trip", "")
	if err != nil {
		return trip.Trip{}, err
	}
	t, err := trip.NewTrip(actor, in)
	if err != nil {
		return trip.Trip{}, err
	}
	b.fillOwner(&t)

	created, err := b.api.CreateTrip(ctx, t)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("creating trip: %w", err)
	}
	return b.store(created), nil
}

// CreateMeetup posts a meetup and one date proposal per candidate date.
// When a proposal cannot be created the meetup is deleted again.
func (b *Board) CreateMeetup(ctx context.Context, in trip.MeetupInput) (out trip.Trip, err error) {
	defer func() { err = b.finish("create_meetup", err) }()

	actor, err := b.begin(ctx, "create_meetup", "")
	if err != nil {
		return trip.Trip{}, err
	}
	t, err := trip.NewMeetup(actor, in, b.now())
	if err != nil {
		return trip.Trip{}, err
	}
	b.fillOwner(&t)

	created, err := b.api.CreateTrip(ctx, t)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("creating meetup: %w", err)
	}

	details := &trip.MeetupDetails{CandidateDates: []time.Time{}, DateVotes: map[string][]string{}}
	ids := make(map[string]string)
	for _, d := range t.Meetup.CandidateDates {
		p, err := b.api.CreateProposal(ctx, created.ID, d, actor)
		if err != nil {
			if delErr := b.api.DeleteTrip(ctx, created.ID); delErr != nil {
				slog.Error("failed to roll back meetup", "trip_id", created.ID, "error", delErr)
			}
			return trip.Trip{}, fmt.Errorf("proposing %s: %w", trip.DateKey(d), err)
		}
		key := trip.DateKey(p.Date)
		ids[key] = p.ID
		details.CandidateDates = append(details.CandidateDates, p.Date)
		details.DateVotes[key] = []string{}
	}
	created.Meetup = details

	b.mu.Lock()
	b.proposals[created.ID] = ids
	b.mu.Unlock()
	return b.store(created), nil
}

// fillOwner copies the viewer's directory name and avatar onto a new trip.
func (b *Board) fillOwner(t *trip.Trip) {
	if b.profiles == nil {
		return
	}
	if name, avatar, ok := b.profiles.DisplayFor(t.OwnerID); ok {
		t.UserName, t.UserAvatar = name, avatar
	}
}

// UpdateTrip applies the edit form to an existing trip.
func (b *Board) UpdateTrip(ctx context.Context, id string, in trip.TripInput) (out trip.Trip, err error) {
	defer func() { err = b.finish("update_trip", err) }()

	actor, err := b.begin(ctx, "update_trip", id)
	if err != nil {
		return trip.Trip{}, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, err
	}
	edited, err := trip.ApplyEdit(existing, actor, in)
	if err != nil {
		return trip.Trip{}, err
	}
	saved, err := b.api.UpdateTrip(ctx, edited)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("updating trip: %w", err)
	}
	if !saved.IsRecruitment {
		b.unlink(id)
	}
	return b.store(saved), nil
}

// DeleteTrip removes one of the viewer's trips.
func (b *Board) DeleteTrip(ctx context.Context, id string) (err error) {
	defer func() { err = b.finish("delete_trip", err) }()

	actor, err := b.begin(ctx, "delete_trip", id)
	if err != nil {
		return err
	}
	existing, err := b.get(id)
	if err != nil {
		return err
	}
	if !existing.IsOwnedBy(actor) {
		return trip.ErrNotOwner
	}
	if err := b.api.DeleteTrip(ctx, id); err != nil {
		return fmt.Errorf("deleting trip: %w", err)
	}
	b.drop(id)
	return nil
}

// SetHidden hides or shows a trip. Hiding a recruiting trip ends the
// recruitment first.
func (b *Board) SetHidden(ctx context.Context, id string, hidden bool) (out trip.Trip, err error) {
	action := "unhide"
	if hidden {
		action = "hide"
	}
	defer func() { err = b.finish(action, err) }()

	actor, err := b.begin(ctx, action, id)
	if err != nil {
		return trip.Trip{}, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, err
	}
	if _, err := trip.SetHidden(existing, actor, hidden); err != nil {
		return trip.Trip{}, err
	}

	if hidden && existing.IsRecruitment {
		ended, err := b.api.EndRecruitment(ctx, id)
		if err != nil {
			return trip.Trip{}, fmt.Errorf("ending recruitment: %w", err)
		}
		b.unlink(id)
		// Keep the server's state even if hiding fails below.
		b.store(ended)
	}
	saved, err := b.api.ToggleHidden(ctx, id, &hidden)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("setting visibility: %w", err)
	}
	return b.store(saved), nil
}

// StartRecruitment opens a trip to participants.
func (b *Board) StartRecruitment(ctx context.Context, id string, r trip.Recruitment) (trip.Trip, error) {
	return b.recruit(ctx, "start_recruitment", id, r, trip.StartRecruitment)
}

// SaveRecruitment edits an open recruitment.
func (b *Board) SaveRecruitment(ctx context.Context, id string, r trip.Recruitment) (trip.Trip, error) {
	return b.recruit(ctx, "edit_recruitment", id, r, trip.EditRecruitment)
}

func (b *Board) recruit(ctx context.Context, action, id string, r trip.Recruitment,
	apply func(trip.Trip, string, trip.Recruitment) (trip.Trip, error)) (out trip.Trip, err error) {
	defer func() { err = b.finish(action, err) }()

	actor, err := b.begin(ctx, action, id)
	if err != nil {
		return trip.Trip{}, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, err
	}
	want, err := apply(existing, actor, r)
	if err != nil {
		return trip.Trip{}, err
	}
	saved, err := b.api.UpdateTrip(ctx, want)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("saving recruitment: %w", err)
	}

	b.mu.Lock()
	if r.ExternalLinked {
		b.linked[id] = true
	} else {
		delete(b.linked, id)
	}
	b.mu.Unlock()
	return b.store(saved), nil
}

// EndRecruitment closes recruitment. Participants stay on the trip.
func (b *Board) EndRecruitment(ctx context.Context, id string) (out trip.Trip, err error) {
	defer func() { err = b.finish("end_recruitment", err) }()

	actor, err := b.begin(ctx, "end_recruitment", id)
	if err != nil {
		return trip.Trip{}, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, err
	}
	if _, err := trip.EndRecruitment(existing, actor); err != nil {
		return trip.Trip{}, err
	}
	saved, err := b.api.EndRecruitment(ctx, id)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("ending recruitment: %w", err)
	}
	b.unlink(id)
	return b.store(saved), nil
}

func (b *Board) unlink(id string) {
	b.mu.Lock()
	delete(b.linked, id)
	b.mu.Unlock()
}

// Join adds the viewer to a recruiting trip.
func (b *Board) Join(ctx context.Context, id string) (out trip.Trip, err error) {
	defer func() { err = b.finish("join", err) }()

	actor, err := b.begin(ctx, "join", id)
	if err != nil {
		return trip.Trip{}, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, err
	}
	if _, err := trip.Join(existing, actor); err != nil {
		return trip.Trip{}, err
	}
	saved, err := b.api.Join(ctx, id, actor)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("joining trip: %w", err)
	}
	return b.store(saved), nil
}

// Leave removes the viewer from a trip's participants.
func (b *Board) Leave(ctx context.Context, id string) (out trip.Trip, err error) {
	defer func() { err = b.finish("leave", err) }()

	actor, err := b.begin(ctx, "leave", id)
	if err != nil {
		return trip.Trip{}, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, err
	}
	if _, err := trip.Leave(existing, actor); err != nil {
		return trip.Trip{}, err
	}
	saved, err := b.api.Leave(ctx, id, actor)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("leaving trip: %w", err)
	}
	return b.store(saved), nil
}

// AddParticipant lets the owner add someone to the participant list.
func (b *Board) AddParticipant(ctx context.Context, id, participantID string) (trip.Trip, error) {
	return b.participants(ctx, "add_participant", id, func(t trip.Trip, actor string) (trip.Trip, error) {
		return trip.AddParticipant(t, actor, participantID)
	})
}

// RemoveParticipant lets the owner drop someone from the participant list.
func (b *Board) RemoveParticipant(ctx context.Context, id, participantID string) (trip.Trip, error) {
	return b.participants(ctx, "remove_participant", id, func(t trip.Trip, actor string) (trip.Trip, error) {
		return trip.RemoveParticipant(t, actor, participantID)
	})
}

func (b *Board) participants(ctx context.Context, action, id string,
	apply func(trip.Trip, string) (trip.Trip, error)) (out trip.Trip, err error) {
	defer func() { err = b.finish(action, err) }()

	actor, err := b.begin(ctx, action, id)
	if err != nil {
		return trip.Trip{}, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, err
	}
	want, err := apply(existing, actor)
	if err != nil {
		return trip.Trip{}, err
	}
	saved, err := b.api.UpdateTrip(ctx, want)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("saving participants: %w", err)
	}
	return b.store(saved), nil
}

// AddCandidateDate proposes another date for one of the viewer's meetups.
func (b *Board) AddCandidateDate(ctx context.Context, id string, date time.Time) (out trip.Trip, err error) {
	defer func() { err = b.finish("add_date", err) }()

	actor, err := b.begin(ctx, "add_date", id)
	if err != nil {
		return trip.Trip{}, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, err
	}
	if _, err := trip.AddCandidateDate(existing, actor, date); err != nil {
		return trip.Trip{}, err
	}
	p, err := b.api.CreateProposal(ctx, id, date, actor)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("proposing date: %w", err)
	}
	want, err := trip.AddCandidateDate(existing, actor, p.Date)
	if err != nil {
		return trip.Trip{}, err
	}
	b.index(id, trip.DateKey(p.Date), p.ID)
	return b.store(want), nil
}

// RemoveCandidateDate withdraws a candidate date and its votes.
func (b *Board) RemoveCandidateDate(ctx context.Context, id string, date time.Time) (out trip.Trip, err error) {
	defer func() { err = b.finish("remove_date", err) }()

	actor, err := b.begin(ctx, "remove_date", id)
	if err != nil {
		return trip.Trip{}, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, err
	}
	want, err := trip.RemoveCandidateDate(existing, actor, date)
	if err != nil {
		return trip.Trip{}, err
	}
	pid, err := b.proposalID(ctx, existing, date)
	if err != nil {
		return trip.Trip{}, err
	}
	if err := b.api.DeleteProposal(ctx, pid); err != nil {
		return trip.Trip{}, fmt.Errorf("withdrawing date: %w", err)
	}

	b.mu.Lock()
	delete(b.proposals[id], trip.DateKey(date))
	b.mu.Unlock()
	return b.store(want), nil
}

// ToggleVote flips the viewer's vote on one candidate date and applies
// the server's voter list. voted reports whether the viewer now votes
// for the date.
func (b *Board) ToggleVote(ctx context.Context, id string, date time.Time) (out trip.Trip, voted bool, err error) {
	defer func() { err = b.finish("vote", err) }()

	actor, err := b.begin(ctx, "vote", id)
	if err != nil {
		return trip.Trip{}, false, err
	}
	existing, err := b.get(id)
	if err != nil {
		return trip.Trip{}, false, err
	}
	_, wantVote, err := trip.ToggleVote(existing, actor, date)
	if err != nil {
		return trip.Trip{}, false, err
	}
	pid, err := b.proposalID(ctx, existing, date)
	if err != nil {
		return trip.Trip{}, false, err
	}

	if wantVote {
		err = b.api.Vote(ctx, pid, actor)
	} else {
		err = b.api.Unvote(ctx, pid, actor)
	}
	if err != nil {
		return trip.Trip{}, false, fmt.Errorf("voting: %w", err)
	}
	voters, err := b.api.Votes(ctx, pid)
	if err != nil {
		return trip.Trip{}, false, fmt.Errorf("reading votes: %w", err)
	}

	// Apply to the current record; a refresh may have replaced it meanwhile.
	current, err := b.get(id)
	if err != nil {
		return trip.Trip{}, false, err
	}
	updated, err := trip.SetVoters(current, date, voters)
	if err != nil {
		return trip.Trip{}, false, err
	}
	stored := b.store(updated)
	for _, v := range stored.Voters(date) {
		if v == actor {
			return stored, true, nil
		}
	}
	return stored, false, nil
}

func (b *Board) index(tripID, key, proposalID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proposals[tripID] == nil {
		b.proposals[tripID] = make(map[string]string)
	}
	b.proposals[tripID][key] = proposalID
}

// proposalID finds the server proposal behind a candidate date, reloading
// the meetup's proposals once when the index has no entry.
func (b *Board) proposalID(ctx context.Context, t trip.Trip, date time.Time) (string, error) {
	key := trip.DateKey(date)
	b.mu.RLock()
	pid, ok := b.proposals[t.ID][key]
	b.mu.RUnlock()
	if ok {
		return pid, nil
	}

	_, ids, err := b.loadMeetup(ctx, t)
	if err != nil {
		return "", fmt.Errorf("loading proposals: %w", err)
	}
	b.mu.Lock()
	b.proposals[t.ID] = ids
	b.mu.Unlock()
	if pid, ok := ids[key]; ok {
		return pid, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoProposal, key)
}

// Comments lists a trip's discussion thread.
func (b *Board) Comments(ctx context.Context, id string) ([]remote.Comment, error) {
	if _, err := b.get(id); err != nil {
		return nil, err
	}
	cs, err := b.api.ListComments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return cs, nil
}

// AddComment posts a comment as the viewer.
func (b *Board) AddComment(ctx context.Context, id, content string) (out remote.Comment, err error) {
	defer func() { err = b.finish("comment", err) }()

	actor, err := b.begin(ctx, "comment", id)
	if err != nil {
		return remote.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return remote.Comment{}, fmt.Errorf("%w: comment is empty", trip.ErrValidation)
	}
	if _, err := b.get(id); err != nil {
		return remote.Comment{}, err
	}
	name := actor
	if b.profiles != nil {
		if n, _, ok := b.profiles.DisplayFor(actor); ok && n != "" {
			name = n
		}
	}
	cm, err := b.api.CreateComment(ctx, remote.Comment{TripID: id, UserDiscordID: actor, UserName: name, Content: content})
	if err != nil {
		return remote.Comment{}, fmt.Errorf("posting comment: %w", err)
	}
	return cm, nil
}

// DeleteComment removes a comment. The API enforces authorship.
func (b *Board) DeleteComment(ctx context.Context, commentID string) (err error) {
	defer func() { err = b.finish("delete_comment", err) }()

	if _, err := b.begin(ctx, "delete_comment", commentID); err != nil {
		return err
	}
	if err := b.api.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	return nil
}

// Unread is the counter reset when a view opens.
type Unread interface {
	ViewOpened(ctx context.Context, v filter.View) (bool, error)
}

// OpenView resets the unread count when v is the everyone list and, for a
// signed-in viewer, marks the server inbox read. The inbox call is best
// effort.
func (b *Board) OpenView(ctx context.Context, v filter.View, unread Unread) error {
	cleared, err := unread.ViewOpened(ctx, v)
	if err != nil || !cleared {
		return err
	}
	actor, err := b.identity(ctx)
	if err != nil || actor == "" {
		return err
	}
	if err := b.api.MarkAllRead(ctx, actor); err != nil {
		slog.Warn("marking notifications read failed", "error", err)
	}
	return nil
}
