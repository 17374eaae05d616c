package core

import "github.com/dkeye/devcircle/internal/domain"

// Frame is an encoded outbound message (one WebSocket text frame).
type Frame []byte

type SessionID string

// Sink abstracts a session's outbound transport.
// Owned by the adapter; the adapter must Close() it.
type Sink interface {
	SID() SessionID
	// TrySend must never block; a full buffer returns an error and the frame is lost.
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the relay.
type PublishResult struct {
	SendTo  int
	Dropped []Sink
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Name() domain.RoomName
	MemberCount() int
	Members() []SessionID

	AddMember(s Sink) bool
	RemoveMember(sid SessionID) bool
	Broadcast(from SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

type RoomManager interface {
	GetOrCreate(name domain.RoomName) RoomService
	Get(name domain.RoomName) (RoomService, bool)
	List() []RoomInfo
}
