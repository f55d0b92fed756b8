package app

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/skaye/Parley/internal/core"
	"github.com/skaye/Parley/internal/domain"
)

// Outbound event vocabulary. Every frame the server emits goes through
// one of these constructors so the wire shapes live in a single place.

const SystemSender = "System"

func encode(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.events").Msg("event marshal")
		return nil
	}
	return b
}

func EvRoomCreated(code domain.RoomCode) core.Frame {
	return encode(struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
	}{"roomCreated", code})
}

func EvRoomJoined(code domain.RoomCode) core.Frame {
	return encode(struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
	}{"roomJoined", code})
}

func EvMessage(sender, text string) core.Frame {
	return encode(struct {
		Type    string `json:"type"`
		Sender  string `json:"sender"`
		Message string `json:"message"`
	}{"message", sender, text})
}

func EvSystem(format string, args ...any) core.Frame {
	return EvMessage(SystemSender, fmt.Sprintf(format, args...))
}

func EvUserList(users []core.MemberDTO, hostID domain.UserID) core.Frame {
	return encode(struct {
		Type   string           `json:"type"`
		Users  []core.MemberDTO `json:"users"`
		HostID domain.UserID    `json:"hostId"`
	}{"userList", users, hostID})
}

func EvError(message string) core.Frame {
	return encode(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{"error", message})
}

func evBare(typ string) core.Frame {
	return encode(struct {
		Type string `json:"type"`
	}{typ})
}

func EvKicked() core.Frame     { return evBare("kicked") }
func EvBanned() core.Frame     { return evBare("banned") }
func EvRoomClosed() core.Frame { return evBare("roomClosed") }
func EvPong() core.Frame       { return evBare("pong") }
