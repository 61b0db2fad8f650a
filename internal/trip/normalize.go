package trip

// ProfileLookup resolves display data for a user id. The directory is the
// source of truth; a miss means the caller keeps the stored values.
type ProfileLookup interface {
	DisplayFor(discordID string) (name, avatar string, ok bool)
}

// Normalize returns a display-ready copy of raw. Directory values override
// the stored userName/userAvatar whenever the directory has them. IsOwn is
// recomputed from viewerID and is false when there is no session.
func Normalize(raw Trip, dir ProfileLookup, viewerID string) Trip {
	t := raw.clone()

	if dir != nil {
		if name, avatar, ok := dir.DisplayFor(t.OwnerID); ok {
			if name != "" {
				t.UserName = name
			}
			if avatar != "" {
				t.UserAvatar = avatar
			}
		}
	}

	t.IsOwn = t.IsOwnedBy(viewerID)
	t.Participants = UniqueParticipants(t.Participants)

	if t.IsMeetup() && t.Meetup == nil {
		t.Meetup = &MeetupDetails{DateVotes: map[string][]string{}}
	}
	if !t.IsMeetup() {
		t.Meetup = nil
	}
	return t
}

// NormalizeAll runs Normalize over every trip. It must be re-run whenever
// the directory or the session identity changes.
func NormalizeAll(raw []Trip, dir ProfileLookup, viewerID string) []Trip {
	out := make([]Trip, len(raw))
	for i, t := range raw {
		out[i] = Normalize(t, dir, viewerID)
	}
	return out
}
