package signal

import (
	"sync"
	"time"

	"github.com/dkeye/devcircle/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *CollabWSController) handlePing(conn *WsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *CollabWSController) handleJoin(conn *WsConn, env envelope) {
	ctl.Relay.Join(conn.sid, env.ProjectID)
	log.Debug().Str("module", "signal").Str("sid", string(conn.sid)).Str("room", env.ProjectID).Msg("join-room")
}

// handleCodeChange relays the edit. Over the rate limit, only the newest edit per
// file is held back and goes out once the window has room again.
func (ctl *CollabWSController) handleCodeChange(conn *WsConn, env envelope) {
	if env.ProjectID == "" || env.FileName == "" {
		return
	}
	p := &conn.pending
	p.mu.Lock()
	defer p.mu.Unlock()

	key := editKey{project: env.ProjectID, file: env.FileName}
	if ok, wait := ctl.Limiter.Reserve(conn.sid); !ok {
		p.hold(key, env)
		p.schedule(wait, func() { ctl.flushPending(conn) })
		log.Debug().Str("module", "signal").Str("sid", string(conn.sid)).Str("file", env.FileName).Msg("code-change deferred")
		return
	}
	// a newer edit supersedes the held one
	p.forget(key)
	ctl.publishEdit(conn, env)
}

func (ctl *CollabWSController) flushPending(conn *WsConn) {
	p := &conn.pending
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timer = nil

	for !p.closed && len(p.order) > 0 {
		ok, wait := ctl.Limiter.Reserve(conn.sid)
		if !ok {
			p.schedule(wait, func() { ctl.flushPending(conn) })
			return
		}
		key := p.order[0]
		env := p.edits[key]
		p.forget(key)
		ctl.publishEdit(conn, env)
	}
}

func (ctl *CollabWSController) publishEdit(conn *WsConn, env envelope) {
	ctl.Relay.PublishEdit(conn.sid, env.ProjectID, domain.EditEvent{
		FileName: env.FileName,
		Content:  env.Content,
	})
}

type editKey struct {
	project string
	file    string
}

// pendingEdits is the per-connection backlog of rate-limited edits, one per file.
// The zero value is ready to use.
type pendingEdits struct {
	mu     sync.Mutex
	edits  map[editKey]envelope
	order  []editKey
	timer  *time.Timer
	closed bool
}

func (p *pendingEdits) hold(key editKey, env envelope) {
	if p.edits == nil {
		p.edits = make(map[editKey]envelope)
	}
	if _, ok := p.edits[key]; !ok {
		p.order = append(p.order, key)
	}
	p.edits[key] = env
}

func (p *pendingEdits) forget(key editKey) {
	if _, ok := p.edits[key]; !ok {
		return
	}
	delete(p.edits, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *pendingEdits) schedule(wait time.Duration, flush func()) {
	if p.timer != nil || p.closed {
		return
	}
	p.timer = time.AfterFunc(wait, flush)
}

// stop discards the backlog of a closed connection.
func (p *pendingEdits) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.edits, p.order = nil, nil
}
