package notify

import (
	"context"
	"sync"

	"github.com/alecgard/tripboard/internal/trip"
)

type NoticeKind string

const (
	NoticeTrip        NoticeKind = "trip"
	NoticeRecruitment NoticeKind = "recruitment"
)

// Notice is one newly observed event worth telling the user about.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Trip trip.Trip  `json:"trip"`
}

// Observer compares each poll of the trip list with the previous ones.
// The first call only records what exists.
type Observer struct {
	counter *Counter

	mu         sync.Mutex
	seeded     bool
	seen       map[string]bool
	recruiting map[string]bool
}

func NewObserver(counter *Counter) *Observer {
	return &Observer{
		counter:    counter,
		seen:       make(map[string]bool),
		recruiting: make(map[string]bool),
	}
}

// Observe records trips and returns the events authored by someone other
// than viewerID since the last call. Each event bumps the counter once.
func (o *Observer) Observe(ctx context.Context, trips []trip.Trip, viewerID string) ([]Notice, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var notices []Notice
	for _, t := range trips {
		if t.ID == "" {
			continue
		}
		known := o.seen[t.ID]
		wasRecruiting := o.recruiting[t.ID]
		o.seen[t.ID] = true
		o.recruiting[t.ID] = t.IsRecruitment

		if !o.seeded || t.IsHidden || t.IsOwnedBy(viewerID) {
			continue
		}
		switch {
		case !known && t.IsRecruitment:
			notices = append(notices, Notice{Kind: NoticeRecruitment, Trip: t})
		case !known:
			notices = append(notices, Notice{Kind: NoticeTrip, Trip: t})
		case t.IsRecruitment && !wasRecruiting:
			notices = append(notices, Notice{Kind: NoticeRecruitment, Trip: t})
		}
	}
	o.seeded = true

	for range notices {
		if _, err := o.counter.Increment(ctx); err != nil {
			return notices, err
		}
	}
	return notices, nil
}
