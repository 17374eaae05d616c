package domain

// RoomName is the project identifier a collaboration room is keyed by.
type RoomName string

// EditEvent is a transient notification of a file's full new content.
// It is never stored or versioned.
type EditEvent struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}
