package tracker

// Kind is the transition a voice state update represents. It is derived once
// at the boundary so the engine switches on an explicit enum instead of
// re-checking channel pointers at every call site.
type Kind int

const (
	// KindNone is an update with no tracking consequence (e.g. a user who
	// was not in voice toggling their camera).
	KindNone Kind = iota
	// KindJoin opens a session: no previous channel, new channel present.
	KindJoin
	// KindLeave closes a session: previous channel present, no new channel.
	KindLeave
	// KindStatusChange is a channel move or flag toggle while the user
	// stays in voice.
	KindStatusChange
)

// VoiceState is the tracker's view of one side of a gateway voice state
// update. A nil VoiceState or a zero ChannelID means the user was not in any
// voice channel.
type VoiceState struct {
	UserID      uint64
	GuildID     uint64
	Username    string
	ChannelID   uint64
	ChannelName string
	SelfMute    bool
	SelfDeaf    bool
}

// InVoice reports whether the state places the user in a voice channel.
func (s *VoiceState) InVoice() bool {
	return s != nil && s.ChannelID != 0
}

// Channel returns the state's channel descriptor, or nil when not in voice.
func (s *VoiceState) Channel() *Channel {
	if !s.InVoice() {
		return nil
	}
	return &Channel{ID: s.ChannelID, Name: s.ChannelName}
}

// MutedOrDeafened reports whether the user has muted or deafened themselves.
func (s *VoiceState) MutedOrDeafened() bool {
	return s != nil && (s.SelfMute || s.SelfDeaf)
}

// ClassifyTransition derives the transition kind from the old and new states.
func ClassifyTransition(oldState, newState *VoiceState) Kind {
	switch {
	case !oldState.InVoice() && newState.InVoice():
		return KindJoin
	case oldState.InVoice() && !newState.InVoice():
		return KindLeave
	case oldState.InVoice() && newState.InVoice():
		return KindStatusChange
	default:
		return KindNone
	}
}
