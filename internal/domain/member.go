package domain

// ConnID is the transport-scoped identity of a member. It changes on every
// reconnect; Member.Name is what survives.
type ConnID string

// StatusField names a member flag that clients may toggle via status-update.
type StatusField string

const (
	StatusReady      StatusField = "ready"
	StatusFileLoaded StatusField = "fileLoaded"
)

func (f StatusField) Valid() bool {
	return f == StatusReady || f == StatusFileLoaded
}

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	ConnID     ConnID `json:"id"`
	Name       string `json:"name"`
	Ready      bool   `json:"ready"`
	FileLoaded bool   `json:"fileLoaded"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(conn ConnID, name string) Member {
	return Member{ConnID: conn, Name: name}
}
