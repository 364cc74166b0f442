package protocol

import (
	"bytes"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/mcoot/pong-realtime/internal/model"
)

// Decode errors. Callers log and drop the message.
var (
	ErrMalformed   = errors.New("malformed message")
	ErrMissingType = errors.New("message has no type")
	ErrUnknownType = errors.New("unknown message type")
)

// Floats are trimmed to 6 digits to keep per-tick snapshots small
var json = jsoniter.Config{
	MarshalFloatWith6Digits: true,
	EscapeHTML:              false,
	SortMapKeys:             true,
	CaseSensitive:           true,
}.Froze()

// envelope is the union of every inbound field
type envelope struct {
	Type      *string    `json:"type"`
	To        flexString `json:"to"`
	ToUserID  flexString `json:"toUserId"`
	From      flexString `json:"from"`
	RoomID    flexString `json:"roomId"`
	Direction string     `json:"direction"`
	Action    string     `json:"action"`
}

// Decode parses one inbound frame into its typed variant
func Decode(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == nil || *env.Type == "" {
		return nil, ErrMissingType
	}

	roomID := model.RoomID(env.RoomID)

	switch t := Type(*env.Type); t {
	case TypeLobbyJoin:
		return LobbyJoin{}, nil
	case TypeLobbyLeave:
		return LobbyLeave{}, nil
	case TypeUserListRequest:
		return UserListRequest{}, nil
	case TypeInvite, TypeInviteSend:
		to := env.To
		if to == "" {
			to = env.ToUserID
		}
		return InviteSend{To: string(to)}, nil
	case TypeInviteAccepted:
		return InviteAccepted{From: string(env.From)}, nil
	case TypeInviteDeclined:
		return InviteDeclined{From: string(env.From)}, nil
	case TypeMatchmakingJoin:
		return MatchmakingJoin{}, nil
	case TypeMatchmakingLeave:
		return MatchmakingLeave{}, nil
	case TypeGameJoin:
		return GameJoin{RoomID: roomID}, nil
	case TypeGameMove:
		return GameMove{RoomID: roomID, Direction: env.Direction, Action: env.Action}, nil
	case TypeGameBegin:
		return GameBegin{RoomID: roomID}, nil
	case TypeGameLeave:
		return GameLeave{RoomID: roomID}, nil
	case TypeFriendsStatusRequest:
		return FriendsStatusRequest{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// Encode serializes an outbound message
func Encode(msg Outbound) ([]byte, error) {
	return json.Marshal(msg)
}

// flexString accepts a JSON string or number, as clients send ids both ways
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n jsoniter.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
		return nil
	default:
		return fmt.Errorf("expected string or number, got %s", data)
	}
}
