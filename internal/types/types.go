package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

var (
	ErrUnknownType      = errors.New("unknown message type")
	ErrMalformedPayload = errors.New("malformed payload")
)

type ClientMessage struct {
	Type string          `json:"type"`
	Ref  int64           `json:"ref,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Request is a decoded client message: the verb, its ref and the
// verb-specific payload (one of the pkg/types payload structs).
type Request struct {
	Type    string
	Ref     int64
	Payload wire.Payload
}

var payloads = map[string]func() wire.Payload{
	wire.VerbCreateLobby:      func() wire.Payload { return &wire.CreateLobby{} },
	wire.VerbJoinLobby:        func() wire.Payload { return &wire.JoinLobby{} },
	wire.VerbJoinRandomPublic: func() wire.Payload { return &wire.JoinRandomPublic{} },
	wire.VerbLeaveLobby:       func() wire.Payload { return &wire.LeaveLobby{} },
	wire.VerbSetPrivacy:       func() wire.Payload { return &wire.SetPrivacy{} },
	wire.VerbSetHandedness:    func() wire.Payload { return &wire.SetHandedness{} },
	wire.VerbKick:             func() wire.Payload { return &wire.Kick{} },
	wire.VerbStartRound:       func() wire.Payload { return &wire.StartRound{} },
	wire.VerbStroke:           func() wire.Payload { return &wire.Stroke{} },
	wire.VerbRequestReplay:    func() wire.Payload { return &wire.RoomRef{} },
	wire.VerbClearCanvas:      func() wire.Payload { return &wire.RoomRef{} },
	wire.VerbSubmitImage:      func() wire.Payload { return &wire.SubmitImage{} },
	wire.VerbSubmitVotes:      func() wire.Payload { return &wire.SubmitVotes{} },
	wire.VerbIdentify:         func() wire.Payload { return &wire.Identify{} },
	wire.VerbGetRoundStatus:   func() wire.Payload { return &wire.CodeRef{} },
	wire.VerbGetPrompt:        func() wire.Payload { return &wire.CodeRef{} },
	wire.VerbVideoFrame:       func() wire.Payload { return &wire.VideoFrame{} },
	wire.VerbVoiceJoin:        func() wire.Payload { return &wire.RoomRef{} },
	wire.VerbVoiceLeave:       func() wire.Payload { return &wire.RoomRef{} },
	wire.VerbVoiceOffer:       func() wire.Payload { return &wire.Signal{} },
	wire.VerbVoiceAnswer:      func() wire.Payload { return &wire.Signal{} },
	wire.VerbVoiceCandidate:   func() wire.Payload { return &wire.Signal{} },
}

// Decode parses one client frame. Unknown types and payloads that do not
// match the verb's schema are rejected; the ref is still returned when the
// envelope itself was readable so the caller can answer with an error.
func Decode(data []byte) (Request, error) {
	var cm ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	newPayload, ok := payloads[cm.Type]
	if !ok {
		return Request{Type: cm.Type, Ref: cm.Ref}, fmt.Errorf("%w: %q", ErrUnknownType, cm.Type)
	}

	req := Request{Type: cm.Type, Ref: cm.Ref}
	p := newPayload()

	data = bytes.TrimSpace(cm.Data)
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(p); err != nil {
			return req, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
	}

	if err := p.Validate(); err != nil {
		return req, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	req.Payload = p
	return req, nil
}

func Event(kind string, data any) ServerMessage {
	return ServerMessage{Type: kind, Data: data}
}

func Ack(ref int64, data any) ServerMessage {
	return ServerMessage{Type: wire.EvtAck, Ref: ref, Data: data}
}

func Error(ref int64, message string) ServerMessage {
	return ServerMessage{Type: wire.EvtError, Ref: ref, Data: wire.ErrorMessage{Message: message}}
}
