package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/skaye/Parley/internal/app"
	"github.com/skaye/Parley/internal/core"
	"github.com/skaye/Parley/internal/domain"
)

// dispatch decodes the type envelope and routes to the handler for that
// command. Unknown types are logged and ignored; frames that are not
// JSON are answered with an error event, never crash the connection.
func (ctl *Controller) dispatch(sid core.SessionID, c *Conn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		_ = c.TrySend(app.EvError(app.MsgInvalidPayload))
		return
	}

	switch env.Type {
	case "createRoom":
		ctl.handleCreateRoom(sid, c, data)
	case "joinRoom":
		ctl.handleJoinRoom(sid, c, data)
	case "message":
		ctl.handleMessage(sid, c, data)
	case "leaveRoom":
		ctl.handleLeaveRoom(sid, c)
	case "kickUser":
		ctl.handleKickUser(c, data)
	case "banUser":
		ctl.handleBanUser(c, data)
	case "ping":
		_ = c.TrySend(app.EvPong())
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown command")
	}
}

// roomUserPayload is the shared field set of createRoom and joinRoom.
type roomUserPayload struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (ctl *Controller) decodeRoomUser(c *Conn, data []byte) (domain.RoomCode, *domain.User, bool) {
	var p roomUserPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad payload")
		_ = c.TrySend(app.EvError(app.MsgInvalidPayload))
		return "", nil, false
	}
	code, err := domain.ParseRoomCode(p.RoomCode)
	if err != nil {
		_ = c.TrySend(app.EvError(app.MsgInvalidPayload))
		return "", nil, false
	}
	user, err := domain.NewUser(domain.UserID(p.UserID), p.Username)
	if err != nil {
		_ = c.TrySend(app.EvError(app.MsgInvalidPayload))
		return "", nil, false
	}
	return code, user, true
}

func (ctl *Controller) handleCreateRoom(sid core.SessionID, c *Conn, data []byte) {
	code, user, ok := ctl.decodeRoomUser(c, data)
	if !ok {
		return
	}
	ctl.Orch.CreateRoom(sid, c, code, user)
}

func (ctl *Controller) handleJoinRoom(sid core.SessionID, c *Conn, data []byte) {
	code, user, ok := ctl.decodeRoomUser(c, data)
	if !ok {
		return
	}
	ctl.Orch.JoinRoom(sid, c, code, user)
}

func (ctl *Controller) handleMessage(sid core.SessionID, c *Conn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
		Sender   string `json:"sender"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		_ = c.TrySend(app.EvError(app.MsgInvalidPayload))
		return
	}
	code, err := domain.ParseRoomCode(p.RoomCode)
	if err != nil {
		_ = c.TrySend(app.EvError(app.MsgInvalidPayload))
		return
	}
	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("message rate limit exceeded, dropping")
		return
	}
	ctl.Orch.Message(c, code, p.Sender, p.Message)
}

// handleLeaveRoom runs the voluntary-leave path, then closes the
// transport: the close itself is this adapter's call, triggered here.
func (ctl *Controller) handleLeaveRoom(sid core.SessionID, c *Conn) {
	ctl.Orch.Leave(sid)
	c.Close()
}

type moderationPayload struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId"`
	TargetID string `json:"targetId"`
}

func (ctl *Controller) decodeModeration(c *Conn, data []byte) (domain.RoomCode, domain.UserID, domain.UserID, bool) {
	var p moderationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		_ = c.TrySend(app.EvError(app.MsgInvalidPayload))
		return "", "", "", false
	}
	code, err := domain.ParseRoomCode(p.RoomCode)
	if err != nil || p.UserID == "" || p.TargetID == "" {
		_ = c.TrySend(app.EvError(app.MsgInvalidPayload))
		return "", "", "", false
	}
	return code, domain.UserID(p.UserID), domain.UserID(p.TargetID), true
}

func (ctl *Controller) handleKickUser(c *Conn, data []byte) {
	code, requester, target, ok := ctl.decodeModeration(c, data)
	if !ok {
		return
	}
	ctl.Orch.KickUser(c, code, requester, target)
}

func (ctl *Controller) handleBanUser(c *Conn, data []byte) {
	code, requester, target, ok := ctl.decodeModeration(c, data)
	if !ok {
		return
	}
	ctl.Orch.BanUser(c, code, requester, target)
}
