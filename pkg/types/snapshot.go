package types

// Server -> Client
//
// welcome:             connectionId, nickname, accountId?
// ack:                 ok, code?, strokes?, prompt?, handedness?
//                      (get-round-status acks with ok, timeLeft | null)
// error:               message
// lobby-update:        code, players[{id, nickname, isHost}], hostId, isPrivate, handedness
// kicked:              code
// host-promoted:       code
// round-in-progress:   timeLeft, prompt
// round-started:       durationSeconds, prompt
// round-ended:         {}
// canvas-cleared:      {}
// gallery:             artifacts { [id]: {nickname, image} }, winner | null, hostId
// voting-results:      winner | null, tallies { [id]: number }
// waiting-for-others:  submitted, required
// peer-stroke:         peerId, from, to, color, thickness
// peer-frame:          peerId, image
// prompt:              prompt
// voice-peer-joined:   peerId
// voice-leave:         peerId
// voice-offer / voice-answer / voice-candidate: from, payload

const (
	EvtWelcome          = "welcome"
	EvtAck              = "ack"
	EvtError            = "error"
	EvtLobbyUpdate      = "lobby-update"
	EvtKicked           = "kicked"
	EvtHostPromoted     = "host-promoted"
	EvtRoundInProgress  = "round-in-progress"
	EvtRoundStarted     = "round-started"
	EvtRoundEnded       = "round-ended"
	EvtCanvasCleared    = "canvas-cleared"
	EvtGallery          = "gallery"
	EvtVotingResults    = "voting-results"
	EvtWaitingForOthers = "waiting-for-others"
	EvtPeerStroke       = "peer-stroke"
	EvtPeerFrame        = "peer-frame"
	EvtPrompt           = "prompt"
	EvtVoicePeerJoined  = "voice-peer-joined"
	EvtVoiceLeave       = "voice-leave"
	EvtVoiceOffer       = "voice-offer"
	EvtVoiceAnswer      = "voice-answer"
	EvtVoiceCandidate   = "voice-candidate"
)

type Welcome struct {
	ConnectionID string `json:"connectionId"`
	Nickname     string `json:"nickname"`
	AccountID    string `json:"accountId,omitempty"`
}

// Ack answers a request that carried a ref. Only the fields relevant to the
// verb are set.
type Ack struct {
	OK         bool                 `json:"ok"`
	Code       string               `json:"code,omitempty"`
	Prompt     string               `json:"prompt,omitempty"`
	Handedness Handedness           `json:"handedness,omitempty"`
}

// Replay is the ack for request-replay. Strokes is always an object, empty
// when nothing has been drawn.
type Replay struct {
	OK      bool                 `json:"ok"`
	Strokes map[string][]Segment `json:"strokes"`
}

// RoundStatus is the ack for get-round-status. TimeLeft is null when the
// lobby has no round in progress.
type RoundStatus struct {
	OK       bool `json:"ok"`
	TimeLeft *int `json:"timeLeft"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type PlayerView struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
}

type LobbyUpdate struct {
	Code       string       `json:"code"`
	Players    []PlayerView `json:"players"`
	HostID     string       `json:"hostId"`
	IsPrivate  bool         `json:"isPrivate"`
	Handedness Handedness   `json:"handedness"`
}

type LobbyRef struct {
	Code string `json:"code"`
}

type RoundInProgress struct {
	TimeLeft int    `json:"timeLeft"`
	Prompt   string `json:"prompt"`
}

type RoundStarted struct {
	DurationSeconds int    `json:"durationSeconds"`
	Prompt          string `json:"prompt"`
}

type Empty struct{}

type Artifact struct {
	Nickname string `json:"nickname"`
	Image    string `json:"image"`
}

type Gallery struct {
	Artifacts map[string]Artifact `json:"artifacts"`
	Winner    *string             `json:"winner"`
	HostID    string              `json:"hostId"`
}

type VotingResults struct {
	Winner  *string            `json:"winner"`
	Tallies map[string]float64 `json:"tallies"`
}

type WaitingForOthers struct {
	Submitted int `json:"submitted"`
	Required  int `json:"required"`
}

type PeerStroke struct {
	PeerID string `json:"peerId"`
	Segment
}

type PeerFrame struct {
	PeerID string `json:"peerId"`
	Image  string `json:"image"`
}

type PromptMessage struct {
	Prompt string `json:"prompt"`
}

type PeerRef struct {
	PeerID string `json:"peerId"`
}

type RelayedSignal struct {
	From    string         `json:"from"`
	Payload map[string]any `json:"payload"`
}

// PublicLobby is one entry of the HTTP public listing.
type PublicLobby struct {
	Code       string     `json:"code"`
	Players    int        `json:"players"`
	Handedness Handedness `json:"handedness"`
}
