package app

import (
	"context"
	"encoding/json"

	"github.com/dkeye/devcircle/internal/core"
	"github.com/dkeye/devcircle/internal/domain"
	"github.com/rs/zerolog/log"
)

const TypeRemoteCodeChange = "remote-code-change"

// Relay forwards edit events between sessions of the same room.
// Delivery is best-effort: nothing is acknowledged, stored or replayed, and a
// publish that reaches nobody is indistinguishable from one that reached everybody.
type Relay struct {
	Registry *Registry
	Rooms    core.RoomManager
	Policy   Policy
}

func NewRelay(policy Policy) *Relay {
	return &Relay{
		Registry: NewRegistry(),
		Rooms:    NewRoomManager(),
		Policy:   policy,
	}
}

// Connect binds a transport session; cancel tears the transport down when the policy kicks it.
func (r *Relay) Connect(sink core.Sink, cancel context.CancelFunc) {
	r.Registry.Bind(sink, cancel)
}

// Subscribe adds a connected sink to room. An empty room name or a sink that
// is not connected is ignored.
func (r *Relay) Subscribe(room domain.RoomName, sink core.Sink) {
	if room == "" {
		return
	}
	sid := sink.SID()
	if !r.Registry.AddRoom(sid, room) {
		return
	}
	r.Rooms.GetOrCreate(room).AddMember(sink)
	// a Disconnect that ran between AddRoom and AddMember missed this member
	if !r.Registry.InRoom(sid, room) {
		if rs, ok := r.Rooms.Get(room); ok {
			rs.RemoveMember(sid)
		}
	}
}

// Publish hands frame to every member of room except exclude. Rooms are never
// created by a publish.
func (r *Relay) Publish(room domain.RoomName, frame core.Frame, exclude core.SessionID) core.PublishResult {
	rs, ok := r.Rooms.Get(room)
	if !ok {
		return core.PublishResult{}
	}
	res := rs.Broadcast(exclude, frame)
	if r.Policy == nil {
		return res
	}
	for _, slow := range res.Dropped {
		switch r.Policy.OnBackPressure(rs, slow) {
		case KickMember:
			log.Warn().Str("module", "app.relay").Str("sid", string(slow.SID())).Str("room", string(room)).Msg("kicking slow member")
			r.kick(slow)
		case DropFrame, NoAction:
			log.Debug().Str("module", "app.relay").Str("sid", string(slow.SID())).Str("room", string(room)).Msg("frame dropped for slow member")
		}
	}
	return res
}

// Unsubscribe removes sink from every room it joined and forgets it.
func (r *Relay) Unsubscribe(sink core.Sink) {
	r.Disconnect(sink.SID())
}

// Join adds a bound session to the room keyed by projectID.
func (r *Relay) Join(sid core.SessionID, projectID string) {
	if projectID == "" {
		return
	}
	sink, ok := r.Registry.GetSession(sid)
	if !ok {
		return
	}
	r.Subscribe(domain.RoomName(projectID), sink)
}

// PublishEdit forwards ev to the other members of the projectID room. The sender
// does not need to be a member.
func (r *Relay) PublishEdit(sid core.SessionID, projectID string, ev domain.EditEvent) core.PublishResult {
	if projectID == "" || ev.FileName == "" {
		return core.PublishResult{}
	}
	frame, err := EncodeEdit(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("encode edit")
		return core.PublishResult{}
	}
	return r.Publish(domain.RoomName(projectID), frame, sid)
}

// Disconnect drops sid from all rooms. Safe to call more than once.
func (r *Relay) Disconnect(sid core.SessionID) {
	for _, name := range r.Registry.Unbind(sid) {
		if room, ok := r.Rooms.Get(name); ok {
			room.RemoveMember(sid)
		}
	}
}

func (r *Relay) kick(s core.Sink) {
	sid := s.SID()
	if r.Registry.Cancel(sid) {
		// the transport's own teardown calls Disconnect
		return
	}
	r.Disconnect(sid)
	s.Close()
}

type remoteCodeChange struct {
	Type     string `json:"type"`
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

func EncodeEdit(ev domain.EditEvent) (core.Frame, error) {
	return json.Marshal(remoteCodeChange{
		Type:     TypeRemoteCodeChange,
		FileName: ev.FileName,
		Content:  ev.Content,
	})
}
