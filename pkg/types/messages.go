package types

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// Client -> Server
//
// Every message is an envelope {"type": verb, "ref": number, "data": {...}}.
// ref is optional and echoed back on the matching "ack".
//
// create-lobby:        nickname?
// join-lobby:          code, nickname
// join-random-public:  nickname
// leave-lobby:         code
// set-privacy:         code, private
// set-handedness:      code, handedness ("left" | "right")
// kick:                code, targetId
// start-round:         code, durationSeconds?
// stroke:              roomId, from{x,y}, to{x,y}, color, thickness
// request-replay:      roomId
// clear-canvas:        roomId
// submit-image:        roomId, image
// submit-votes:        roomId, ratings { [connectionId]: 0..5 step 0.5 }
// identify:            accountId
// get-round-status:    code
// get-prompt:          code
// video-frame:         roomId, image
// voice-join:          roomId
// voice-leave:         roomId
// voice-offer:         roomId, to, payload
// voice-answer:        roomId, to, payload
// voice-candidate:     roomId, to, payload

const (
	VerbCreateLobby      = "create-lobby"
	VerbJoinLobby        = "join-lobby"
	VerbJoinRandomPublic = "join-random-public"
	VerbLeaveLobby       = "leave-lobby"
	VerbSetPrivacy       = "set-privacy"
	VerbSetHandedness    = "set-handedness"
	VerbKick             = "kick"
	VerbStartRound       = "start-round"
	VerbStroke           = "stroke"
	VerbRequestReplay    = "request-replay"
	VerbClearCanvas      = "clear-canvas"
	VerbSubmitImage      = "submit-image"
	VerbSubmitVotes      = "submit-votes"
	VerbIdentify         = "identify"
	VerbGetRoundStatus   = "get-round-status"
	VerbGetPrompt        = "get-prompt"
	VerbVideoFrame       = "video-frame"
	VerbVoiceJoin        = "voice-join"
	VerbVoiceLeave       = "voice-leave"
	VerbVoiceOffer       = "voice-offer"
	VerbVoiceAnswer      = "voice-answer"
	VerbVoiceCandidate   = "voice-candidate"
)

var (
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidField  = errors.New("invalid field value")
	ErrPayloadTooBig = errors.New("payload too large")
)

const (
	MaxImageBytes  = 4 << 20
	MaxFrameBytes  = 512 << 10
	MaxSignalBytes = 64 << 10
)

type Handedness string

const (
	HandLeft  Handedness = "left"
	HandRight Handedness = "right"
)

func (h Handedness) Valid() bool {
	return h == HandLeft || h == HandRight
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is one incremental piece of a stroke, relayed as-is.
type Segment struct {
	From      Point   `json:"from"`
	To        Point   `json:"to"`
	Color     string  `json:"color"`
	Thickness float64 `json:"thickness"`
}

// Payload is implemented by every client verb payload.
type Payload interface {
	Validate() error
}

type CreateLobby struct {
	Nickname string `json:"nickname,omitempty"`
}

func (CreateLobby) Validate() error { return nil }

type JoinLobby struct {
	Code     string `json:"code"`
	Nickname string `json:"nickname"`
}

func (p JoinLobby) Validate() error { return requireCode(p.Code) }

type JoinRandomPublic struct {
	Nickname string `json:"nickname"`
}

func (JoinRandomPublic) Validate() error { return nil }

type LeaveLobby struct {
	Code string `json:"code"`
}

func (p LeaveLobby) Validate() error { return requireCode(p.Code) }

type SetPrivacy struct {
	Code    string `json:"code"`
	Private *bool  `json:"private"`
}

func (p SetPrivacy) Validate() error {
	if p.Private == nil {
		return ErrMissingField
	}
	return requireCode(p.Code)
}

type SetHandedness struct {
	Code       string     `json:"code"`
	Handedness Handedness `json:"handedness"`
}

func (p SetHandedness) Validate() error {
	if !p.Handedness.Valid() {
		return ErrInvalidField
	}
	return requireCode(p.Code)
}

type Kick struct {
	Code     string `json:"code"`
	TargetID string `json:"targetId"`
}

func (p Kick) Validate() error {
	if p.TargetID == "" {
		return ErrMissingField
	}
	return requireCode(p.Code)
}

// StartRound leaves duration validation to the round engine, which falls
// back to the default for anything missing or non-positive. The duration is
// kept raw so a string or bool never rejects the whole request.
type StartRound struct {
	Code            string          `json:"code"`
	DurationSeconds json.RawMessage `json:"durationSeconds,omitempty"`
}

func (p StartRound) Validate() error { return requireCode(p.Code) }

// Duration returns the requested length in seconds, or nil when the field
// is absent or not a finite JSON number.
func (p StartRound) Duration() *float64 {
	raw := strings.TrimSpace(string(p.DurationSeconds))
	var v float64
	if raw == "" || raw == "null" || json.Unmarshal([]byte(raw), &v) != nil {
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type Stroke struct {
	RoomID    string  `json:"roomId"`
	From      Point   `json:"from"`
	To        Point   `json:"to"`
	Color     string  `json:"color"`
	Thickness float64 `json:"thickness"`
}

func (p Stroke) Validate() error {
	for _, v := range []float64{p.From.X, p.From.Y, p.To.X, p.To.Y, p.Thickness} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidField
		}
	}
	if p.Thickness < 0 || len(p.Color) > 64 {
		return ErrInvalidField
	}
	return requireCode(p.RoomID)
}

func (p Stroke) Segment() Segment {
	return Segment{From: p.From, To: p.To, Color: p.Color, Thickness: p.Thickness}
}

type RoomRef struct {
	RoomID string `json:"roomId"`
}

func (p RoomRef) Validate() error { return requireCode(p.RoomID) }

type CodeRef struct {
	Code string `json:"code"`
}

func (p CodeRef) Validate() error { return requireCode(p.Code) }

type SubmitImage struct {
	RoomID string `json:"roomId"`
	Image  string `json:"image"`
}

func (p SubmitImage) Validate() error {
	if p.Image == "" {
		return ErrMissingField
	}
	if len(p.Image) > MaxImageBytes {
		return ErrPayloadTooBig
	}
	return requireCode(p.RoomID)
}

type SubmitVotes struct {
	RoomID  string             `json:"roomId"`
	Ratings map[string]float64 `json:"ratings"`
}

func (p SubmitVotes) Validate() error {
	if p.Ratings == nil {
		return ErrMissingField
	}
	return requireCode(p.RoomID)
}

type Identify struct {
	AccountID string `json:"accountId"`
}

func (p Identify) Validate() error {
	if p.AccountID == "" {
		return ErrMissingField
	}
	return nil
}

type VideoFrame struct {
	RoomID string `json:"roomId"`
	Image  string `json:"image"`
}

func (p VideoFrame) Validate() error {
	if p.Image == "" {
		return ErrMissingField
	}
	if len(p.Image) > MaxFrameBytes {
		return ErrPayloadTooBig
	}
	return requireCode(p.RoomID)
}

// Signal carries an opaque WebRTC offer, answer or ICE candidate to one peer.
type Signal struct {
	RoomID  string         `json:"roomId"`
	To      string         `json:"to"`
	Payload map[string]any `json:"payload"`
}

func (p Signal) Validate() error {
	if p.To == "" || p.Payload == nil {
		return ErrMissingField
	}
	return requireCode(p.RoomID)
}

func requireCode(code string) error {
	if code == "" {
		return ErrMissingField
	}
	return nil
}
