package domain

import "encoding/json"

// EventType names one kind of session event. The set is closed: anything
// outside it is dropped by the router instead of being interpreted.
type EventType string

// Inbound event names, one per client action.
const (
	EventJoinRoom          EventType = "join-room"
	EventChatMessage       EventType = "chat-message"
	EventVideoAction       EventType = "video-action"
	EventUserTyping        EventType = "user-typing"
	EventUserStoppedTyping EventType = "user-stopped-typing"
	EventCallOffer         EventType = "call-offer"
	EventCallAnswer        EventType = "call-answer"
	EventICECandidate      EventType = "ice-candidate"
	EventCallEnded         EventType = "call-ended"
	EventVideoToggle       EventType = "video-toggle"
)

// Server-originated event names. chat-message, video-action, the typing pair
// and the signaling events are echoed back out under their inbound names.
const (
	EventRoomJoined       EventType = "room-joined"
	EventRoomFull         EventType = "room-full"
	EventUserConnected    EventType = "user-connected"
	EventUserDisconnected EventType = "user-disconnected"
)

// Envelope frames every event on the wire, in both directions.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinRoom asks to enter a room.
type JoinRoom struct {
	RoomID string `json:"roomId"`
}

// RoomJoined acknowledges a successful join to the joining connection only.
type RoomJoined struct {
	RoomID      string `json:"roomId"`
	UserID      string `json:"userId"`
	IsFirstUser bool   `json:"isFirstUser"`
}

// RoomFull tells the joining connection the room is at capacity.
type RoomFull struct {
	RoomID string `json:"roomId"`
}

// RoomPresence carries the member count after a join or a disconnect.
type RoomPresence struct {
	RoomID     string `json:"roomId"`
	UsersCount int    `json:"usersCount"`
}

// ChatMessage is relayed verbatim to the whole room, sender included.
type ChatMessage struct {
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// VideoAction is a playback command (play, pause, seek) relayed to the other
// members; the sender already applied it locally.
type VideoAction struct {
	RoomID      string  `json:"roomId,omitempty"`
	Action      string  `json:"action"`
	CurrentTime float64 `json:"currentTime"`
	VideoID     string  `json:"videoId"`
}

// Typing signals a typing-indicator change. The outbound username is derived
// from the user id, never stored.
type Typing struct {
	RoomID   string `json:"roomId,omitempty"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

// CallOffer carries an SDP offer blob, opaque to the server.
type CallOffer struct {
	RoomID string          `json:"roomId,omitempty"`
	Offer  json.RawMessage `json:"offer"`
	From   string          `json:"from,omitempty"`
}

// CallAnswer carries an SDP answer blob, opaque to the server.
type CallAnswer struct {
	RoomID string          `json:"roomId,omitempty"`
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from,omitempty"`
}

// ICECandidate carries one ICE candidate blob, opaque to the server.
type ICECandidate struct {
	RoomID    string          `json:"roomId,omitempty"`
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from,omitempty"`
}

// CallEnded tells the peers the sender hung up.
type CallEnded struct {
	RoomID string `json:"roomId,omitempty"`
	From   string `json:"from,omitempty"`
}

// VideoToggle tells the peers the sender switched their camera on or off.
type VideoToggle struct {
	RoomID  string `json:"roomId,omitempty"`
	Enabled bool   `json:"enabled"`
	From    string `json:"from,omitempty"`
}
