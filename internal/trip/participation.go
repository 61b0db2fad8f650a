package trip

// Join adds actorID to a recruiting trip it does not own. The trip is
// returned unchanged alongside the error when the join is refused.
func Join(t Trip, actorID string) (Trip, error) {
	if actorID == "" {
		return t, ErrLoginRequired
	}
	if t.IsOwnedBy(actorID) {
		return t, ErrOwnTrip
	}
	if !t.IsRecruitment {
		return t, ErrNotRecruiting
	}
	if t.HasParticipant(actorID) {
		return t, ErrAlreadyParticipant
	}
	if t.IsFull() {
		return t, ErrFull
	}
	out := t.clone()
	out.Participants = append(UniqueParticipants(out.Participants), actorID)
	return out, nil
}

// Leave removes actorID from the participant set. Leaving a trip one has
// not joined changes nothing and reports ErrNotParticipant.
func Leave(t Trip, actorID string) (Trip, error) {
	if actorID == "" {
		return t, ErrLoginRequired
	}
	if !t.HasParticipant(actorID) {
		return t, ErrNotParticipant
	}
	out := t.clone()
	out.Participants = without(out.Participants, actorID)
	return out, nil
}

// AddParticipant lets the owner add any id. The self-service join rules do
// not apply but capacity still does.
func AddParticipant(t Trip, actorID, participantID string) (Trip, error) {
	if err := requireOwner(t, actorID); err != nil {
		return t, err
	}
	if participantID == "" {
		return t, invalid(ErrParticipantRequired)
	}
	if t.HasParticipant(participantID) {
		return t, ErrAlreadyParticipant
	}
	if t.IsFull() {
		return t, ErrFull
	}
	out := t.clone()
	out.Participants = append(UniqueParticipants(out.Participants), participantID)
	return out, nil
}

// RemoveParticipant lets the owner drop any participant.
func RemoveParticipant(t Trip, actorID, participantID string) (Trip, error) {
	if err := requireOwner(t, actorID); err != nil {
		return t, err
	}
	if !t.HasParticipant(participantID) {
		return t, ErrNotParticipant
	}
	out := t.clone()
	out.Participants = without(out.Participants, participantID)
	return out, nil
}

// without removes the first occurrence of id.
func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	removed := false
	for _, p := range ids {
		if p == id && !removed {
			removed = true
			continue
		}
		out = append(out, p)
	}
	return out
}
