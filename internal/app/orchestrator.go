package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/skaye/Parley/internal/core"
	"github.com/skaye/Parley/internal/domain"
)

// Error strings surfaced to clients. The texts are part of the wire
// contract and are asserted on by clients.
const (
	MsgRoomNotFound   = "Room does not exist!"
	MsgBanned         = "You are banned from this room!"
	MsgKickNotHost    = "Only the host can kick users!"
	MsgBanNotHost     = "Only the host can ban users!"
	MsgInvalidPayload = "Invalid message format"
)

// Orchestrator executes the command set against the room store and the
// session registry. All room mutations go through the store's
// serialized instances; fan-out happens on membership snapshots so no
// slow connection holds a room lock.
type Orchestrator struct {
	Registry *Registry
	Rooms    *core.RoomStore
	Policy   Policy
}

// CreateRoom installs or joins the room for code and binds the session.
// An existing code silently downgrades to a join of that room with its
// original host; the acknowledgement is roomCreated either way.
func (o *Orchestrator) CreateRoom(sid core.SessionID, conn core.SignalConnection, code domain.RoomCode, user *domain.User) {
	if _, _, bound := o.Registry.RoomOf(sid); bound {
		// A second create while bound detaches from the old room first.
		o.Leave(sid)
	}

	m := &core.Member{SID: sid, User: user, Conn: conn}
	var room *core.Room
	for {
		room = o.Rooms.GetOrCreate(code, user.ID)
		if err := room.Add(m); err == nil {
			break
		}
		// The instance was torn down between lookup and add; the next
		// round installs a fresh one.
	}

	o.Registry.BindRoom(sid, code, user)
	_ = conn.TrySend(EvRoomCreated(code))
	o.broadcastUserList(room)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).
		Str("room", string(code)).Str("user", string(user.ID)).Msg("create room")
}

// JoinRoom adds the session to an existing room unless its userId is in
// the room's ban set.
func (o *Orchestrator) JoinRoom(sid core.SessionID, conn core.SignalConnection, code domain.RoomCode, user *domain.User) {
	room, ok := o.Rooms.Get(code)
	if !ok {
		_ = conn.TrySend(EvError(MsgRoomNotFound))
		return
	}
	if room.IsBanned(user.ID) {
		_ = conn.TrySend(EvError(MsgBanned))
		return
	}
	if _, _, bound := o.Registry.RoomOf(sid); bound {
		o.Leave(sid)
	}

	m := &core.Member{SID: sid, User: user, Conn: conn}
	if err := room.Join(m); err != nil {
		if errors.Is(err, core.ErrBanned) {
			_ = conn.TrySend(EvError(MsgBanned))
		} else {
			// Torn down between lookup and join.
			_ = conn.TrySend(EvError(MsgRoomNotFound))
		}
		return
	}

	o.Registry.BindRoom(sid, code, user)
	_ = conn.TrySend(EvRoomJoined(code))
	o.broadcast(room, EvSystem("%s has joined the chat.", user.Username))
	o.broadcastUserList(room)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).
		Str("room", string(code)).Str("user", string(user.ID)).Msg("join room")
}

// Message fans a chat message out verbatim to every live member. There
// is no sender-membership check; any session naming a live room posts.
func (o *Orchestrator) Message(conn core.SignalConnection, code domain.RoomCode, sender, text string) {
	room, ok := o.Rooms.Get(code)
	if !ok {
		_ = conn.TrySend(EvError(MsgRoomNotFound))
		return
	}
	o.broadcast(room, EvMessage(sender, text))
}

// Leave runs the voluntary-leave path: detach the binding, then
// reconcile the departure. Closing the transport is the adapter's move.
func (o *Orchestrator) Leave(sid core.SessionID) {
	code, user, ok := o.Registry.ClearRoom(sid)
	if !ok {
		return
	}
	o.reconcileDeparture(sid, code, user)
}

// KickUser removes a member on the host's order. A missing room or a
// target that is not a member is a silent no-op.
func (o *Orchestrator) KickUser(conn core.SignalConnection, code domain.RoomCode, requester, target domain.UserID) {
	room, ok := o.Rooms.Get(code)
	if !ok {
		return
	}
	if requester != room.HostID() {
		_ = conn.TrySend(EvError(MsgKickNotHost))
		return
	}
	member, ok := room.Member(target)
	if !ok {
		return
	}
	o.removeModerated(room, member, EvKicked(), "%s has been kicked by the host.")
	log.Info().Str("module", "app.orch").Str("room", string(code)).
		Str("target", string(target)).Msg("kicked")
}

// BanUser adds the target to the room's ban set, barring future joins,
// and kicks it out if currently a member.
func (o *Orchestrator) BanUser(conn core.SignalConnection, code domain.RoomCode, requester, target domain.UserID) {
	room, ok := o.Rooms.Get(code)
	if !ok {
		return
	}
	if requester != room.HostID() {
		_ = conn.TrySend(EvError(MsgBanNotHost))
		return
	}
	room.Ban(target)
	log.Info().Str("module", "app.orch").Str("room", string(code)).
		Str("target", string(target)).Msg("banned")
	member, ok := room.Member(target)
	if !ok {
		return
	}
	o.removeModerated(room, member, EvBanned(), "%s has been banned by the host.")
}

// removeModerated is the shared kick/ban termination sequence: flag the
// session so its close is not reconciled as a leave, notify the target,
// terminate its connection, drop the membership, announce.
func (o *Orchestrator) removeModerated(room *core.Room, member *core.Member, ev core.Frame, format string) {
	o.Registry.MarkModerated(member.SID)
	_ = member.Conn.TrySend(ev)
	member.Conn.Close()
	if _, ok := room.RemoveSession(member.User.ID, member.SID); !ok {
		// Lost a race with the member's own departure or a rejoin;
		// those paths announce themselves.
		return
	}
	o.broadcast(room, EvSystem(format, member.User.Username))
	o.broadcastUserList(room)
}

// OnDisconnect reconciles a closed connection. Driven by the read loop's
// exit, so it runs at most once per connection; Unbind returning nil
// makes a second call a no-op.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	entry := o.Registry.Unbind(sid)
	if entry == nil {
		return
	}
	if entry.Cancel != nil {
		entry.Cancel()
	}
	if entry.Moderated {
		// Kick/ban already announced this closure.
		return
	}
	if entry.RoomCode == "" {
		return
	}
	o.reconcileDeparture(sid, entry.RoomCode, entry.User)
}

// reconcileDeparture distinguishes host departure, which cascades to a
// room teardown, from an ordinary member leaving. Removal is keyed by
// session, not just userId: a rejoin replaces the member entry, and the
// stale connection's late close must not evict the live member.
func (o *Orchestrator) reconcileDeparture(sid core.SessionID, code domain.RoomCode, user *domain.User) {
	room, ok := o.Rooms.Get(code)
	if !ok {
		return
	}
	if current, ok := room.Member(user.ID); !ok || current.SID != sid {
		// A newer session holds this userId's membership now; this
		// departure has nothing left to reconcile.
		return
	}

	if user.ID == room.HostID() {
		// Delete first: the closed flag rejects joins racing the
		// teardown, and the snapshot taken after it covers every
		// member that got in before.
		o.Rooms.Delete(code)
		members := room.Members()
		closed := EvRoomClosed()
		for _, m := range members {
			if m.User.ID == user.ID {
				continue
			}
			_ = m.Conn.TrySend(closed)
			m.Conn.Close()
		}
		log.Info().Str("module", "app.orch").Str("room", string(code)).
			Int("members", len(members)).Msg("host departed, room closed")
		return
	}

	removed, ok := room.RemoveSession(user.ID, sid)
	if !ok {
		return
	}
	o.broadcast(room, EvSystem("%s has left the chat.", removed.User.Username))
	if o.Rooms.DeleteIfEmpty(code) {
		return
	}
	o.broadcastUserList(room)
}

func (o *Orchestrator) broadcastUserList(room *core.Room) {
	o.broadcast(room, EvUserList(room.MembersSnapshot(), room.HostID()))
}

// broadcast fans out a frame and applies the backpressure policy to any
// member whose outbound queue rejected it.
func (o *Orchestrator) broadcast(room *core.Room, f core.Frame) {
	res := room.Broadcast(f)
	if o.Policy == nil || len(res.Dropped) == 0 {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case KickMember:
			log.Warn().Str("module", "app.orch").Str("sid", string(slow.SID)).
				Str("room", string(room.Code())).Msg("disconnecting slow consumer")
			slow.Conn.Close()
			o.Registry.Cancel(slow.SID)
		case MarkSlow, DropFrame, NoAction:
		}
	}
}
