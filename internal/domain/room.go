package domain

const MaxRoomNameLen = 30

// RoomName identifies a live room. Rooms have no identity beyond their name and
// current membership.
type RoomName string

// NewRoomName trims raw and checks it against the room name rules.
func NewRoomName(raw string) (RoomName, error) {
	v, ok := clean(raw, roomNameRule)
	if !ok {
		return "", ErrInvalidRoom
	}
	return RoomName(v), nil
}
