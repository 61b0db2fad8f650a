package trip

func requireOwner(t Trip, actorID string) error {
	if actorID == "" {
		return ErrLoginRequired
	}
	if !t.IsOwnedBy(actorID) {
		return ErrNotOwner
	}
	return nil
}

// StartRecruitment moves a not-recruiting trip into recruiting with the
// form's details and capacity.
func StartRecruitment(t Trip, actorID string, r Recruitment) (Trip, error) {
	if err := requireOwner(t, actorID); err != nil {
		return t, err
	}
	if t.IsRecruitment {
		return t, ErrAlreadyRecruiting
	}
	if err := r.Validate(); err != nil {
		return t, err
	}
	if r.Participants == nil && r.MaxParticipants != nil &&
		len(UniqueParticipants(t.Participants)) > *r.MaxParticipants {
		return t, ErrFull
	}
	out := applyRecruitment(t.clone(), r)
	out.IsRecruitment = true
	return out, nil
}

// EditRecruitment updates details, capacity and optionally the participant
// set of a recruiting trip. The trip stays recruiting.
func EditRecruitment(t Trip, actorID string, r Recruitment) (Trip, error) {
	if err := requireOwner(t, actorID); err != nil {
		return t, err
	}
	if !t.IsRecruitment {
		return t, ErrNotRecruiting
	}
	if err := r.Validate(); err != nil {
		return t, err
	}
	if r.Participants == nil && r.MaxParticipants != nil &&
		len(UniqueParticipants(t.Participants)) > *r.MaxParticipants {
		return t, ErrFull
	}
	return applyRecruitment(t.clone(), r), nil
}

func applyRecruitment(t Trip, r Recruitment) Trip {
	t.RecruitmentDetails = r.Details
	t.MinParticipants = r.MinParticipants
	t.MaxParticipants = r.MaxParticipants
	t.ExternalLinked = r.ExternalLinked
	if r.Participants != nil {
		t.Participants = UniqueParticipants(r.Participants)
	}
	return t
}

// EndRecruitment returns a recruiting trip to not-recruiting. Details and
// the external-link flag are cleared; participants are kept as history.
func EndRecruitment(t Trip, actorID string) (Trip, error) {
	if err := requireOwner(t, actorID); err != nil {
		return t, err
	}
	if !t.IsRecruitment {
		return t, ErrNotRecruiting
	}
	return clearRecruitment(t.clone()), nil
}

func clearRecruitment(t Trip) Trip {
	t.IsRecruitment = false
	t.RecruitmentDetails = ""
	t.ExternalLinked = false
	return t
}

// SetHidden sets the hidden flag. Hiding a recruiting trip also ends its
// recruitment; un-hiding never restores it.
func SetHidden(t Trip, actorID string, hidden bool) (Trip, error) {
	if err := requireOwner(t, actorID); err != nil {
		return t, err
	}
	out := t.clone()
	out.IsHidden = hidden
	if hidden && out.IsRecruitment {
		out = clearRecruitment(out)
	}
	return out, nil
}
