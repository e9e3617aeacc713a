package lobby

import (
	"github.com/DoyleJ11/art-battle-backend/internal/engine"
	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

type Msg interface{ isLobbyMsg() }

type Join struct {
	Peer  Peer
	Reply chan bool
}

type Leave struct {
	ClientID string
}

type Kick struct {
	By     string
	Target string
}

type SetPrivacy struct {
	By      string
	Private bool
}

type SetHandedness struct {
	By         string
	Handedness wire.Handedness
}

type StartRound struct {
	By              string
	DurationSeconds *float64
}

type SubmitImage struct {
	From  string
	Image string
}

type SubmitVotes struct {
	From    string
	Ratings map[string]float64
	Reply   chan error
}

// RoundStatus replies with the seconds left, or nil when no round is active.
type RoundStatus struct {
	Reply chan *int
}

type GetPrompt struct {
	From  string
	Reply chan string
}

type Stroke struct {
	From    string
	Segment wire.Segment
}

type RequestReplay struct {
	From  string
	Reply chan map[string][]wire.Segment
}

type ClearCanvas struct {
	From string
}

type VideoFrame struct {
	From  string
	Image string
}

type VoiceJoin struct {
	From string
}

type VoiceLeave struct {
	From string
}

// Signal relays an opaque WebRTC payload to one member. Kind is the event
// type delivered to the target (voice-offer, voice-answer, voice-candidate).
type Signal struct {
	From    string
	To      string
	Kind    string
	Payload map[string]any
}

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

type timerFired struct {
	gen  int
	next engine.Phase
}

func (Join) isLobbyMsg()          {}
func (Leave) isLobbyMsg()         {}
func (Kick) isLobbyMsg()          {}
func (SetPrivacy) isLobbyMsg()    {}
func (SetHandedness) isLobbyMsg() {}
func (StartRound) isLobbyMsg()    {}
func (SubmitImage) isLobbyMsg()   {}
func (SubmitVotes) isLobbyMsg()   {}
func (RoundStatus) isLobbyMsg()   {}
func (GetPrompt) isLobbyMsg()     {}
func (Stroke) isLobbyMsg()        {}
func (RequestReplay) isLobbyMsg() {}
func (ClearCanvas) isLobbyMsg()   {}
func (VideoFrame) isLobbyMsg()    {}
func (VoiceJoin) isLobbyMsg()     {}
func (VoiceLeave) isLobbyMsg()    {}
func (Signal) isLobbyMsg()        {}
func (GetState) isLobbyMsg()      {}
func (Shutdown) isLobbyMsg()      {}
func (timerFired) isLobbyMsg()    {}
