package domain

type SyncAction string

const (
	ActionPlay       SyncAction = "play"
	ActionPause      SyncAction = "pause"
	ActionSeek       SyncAction = "seek"
	ActionRateChange SyncAction = "rateChange"
	ActionSyncTick   SyncAction = "syncTick"
)

func (a SyncAction) Valid() bool {
	switch a {
	case ActionPlay, ActionPause, ActionSeek, ActionRateChange, ActionSyncTick:
		return true
	}
	return false
}

// SyncEvent is a playback-state message. SenderID is stamped by the relay;
// whatever the sender puts there is overwritten.
type SyncEvent struct {
	RoomID       RoomID     `json:"roomId"`
	Action       SyncAction `json:"action"`
	CurrentTime  float64    `json:"currentTime"`
	IsPlaying    bool       `json:"isPlaying"`
	PlaybackRate float64    `json:"playbackRate"`
	SenderID     ConnID     `json:"senderId,omitempty"`
}
