package core

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/JPKrishna28/yt-sync-backend/internal/domain"
	"github.com/JPKrishna28/yt-sync-backend/pkg/logger"
)

// Sender delivers events to connections. The transport layer implements it;
// an empty room resolves to an empty fan-out, not an error.
type Sender interface {
	SendTo(ctx context.Context, conn ConnID, event domain.EventType, payload interface{}) error
	SendToRoom(ctx context.Context, roomID string, event domain.EventType, payload interface{}, exclude ConnID) error
}

// Router dispatches each inbound event to its broadcast scope. Apart from the
// join it is a stateless relay: payloads pass through untouched except for
// re-attaching the sender's id to signaling events.
type Router struct {
	dir    *Directory
	sender Sender
	log    logger.Logger
}

func NewRouter(dir *Directory, sender Sender, log logger.Logger) *Router {
	return &Router{
		dir:    dir,
		sender: sender,
		log:    log.WithModule("router"),
	}
}

// Route handles one inbound event. Unknown event names and malformed
// payloads are dropped; nothing here returns an error to the transport.
func (rt *Router) Route(ctx context.Context, conn ConnID, evt domain.EventType, data json.RawMessage) {
	switch evt {
	case domain.EventJoinRoom:
		rt.handleJoin(ctx, conn, data)
	case domain.EventChatMessage:
		rt.relayChat(ctx, conn, data)
	case domain.EventVideoAction:
		rt.relayVideoAction(ctx, conn, data)
	case domain.EventUserTyping, domain.EventUserStoppedTyping:
		rt.relayTyping(ctx, conn, evt, data)
	case domain.EventCallOffer:
		rt.relayOffer(ctx, conn, data)
	case domain.EventCallAnswer:
		rt.relayAnswer(ctx, conn, data)
	case domain.EventICECandidate:
		rt.relayCandidate(ctx, conn, data)
	case domain.EventCallEnded:
		rt.relayCallEnded(ctx, conn, data)
	case domain.EventVideoToggle:
		rt.relayVideoToggle(ctx, conn, data)
	default:
		rt.log.Debugf("ignoring unknown event %q from %s", evt, conn)
	}
}

func (rt *Router) handleJoin(ctx context.Context, conn ConnID, data json.RawMessage) {
	var p domain.JoinRoom
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		rt.log.Warnf("dropping malformed join-room from %s: %v", conn, err)
		return
	}

	res, err := rt.dir.Join(p.RoomID, conn)
	if errors.Is(err, ErrRoomFull) {
		rt.log.Infof("room %s is full, rejecting %s", p.RoomID, conn)
		rt.sendTo(ctx, conn, domain.EventRoomFull, domain.RoomFull{RoomID: p.RoomID})
		return
	}

	rt.log.Infof("connection %s joined room %s (%d member(s))", conn, p.RoomID, res.MemberCount)
	rt.sendTo(ctx, conn, domain.EventRoomJoined, domain.RoomJoined{
		RoomID:      p.RoomID,
		UserID:      string(conn),
		IsFirstUser: res.Created,
	})
	rt.sendToRoom(ctx, p.RoomID, domain.EventUserConnected, domain.RoomPresence{
		RoomID:     p.RoomID,
		UsersCount: res.MemberCount,
	}, "")
}

func (rt *Router) relayChat(ctx context.Context, conn ConnID, data json.RawMessage) {
	var p domain.ChatMessage
	if err := json.Unmarshal(data, &p); err != nil {
		rt.log.Warnf("dropping malformed chat-message from %s: %v", conn, err)
		return
	}
	// Chat goes to everyone, the sender included.
	rt.sendToRoom(ctx, p.RoomID, domain.EventChatMessage, p, "")
}

func (rt *Router) relayVideoAction(ctx context.Context, conn ConnID, data json.RawMessage) {
	var p domain.VideoAction
	if err := json.Unmarshal(data, &p); err != nil {
		rt.log.Warnf("dropping malformed video-action from %s: %v", conn, err)
		return
	}
	roomID := p.RoomID
	p.RoomID = ""
	rt.sendToRoom(ctx, roomID, domain.EventVideoAction, p, conn)
}

func (rt *Router) relayTyping(ctx context.Context, conn ConnID, evt domain.EventType, data json.RawMessage) {
	var p domain.Typing
	if err := json.Unmarshal(data, &p); err != nil {
		rt.log.Warnf("dropping malformed %s from %s: %v", evt, conn, err)
		return
	}
	roomID := p.RoomID
	p.RoomID = ""
	p.Username = displayName(p.UserID)
	rt.sendToRoom(ctx, roomID, evt, p, conn)
}

func (rt *Router) relayOffer(ctx context.Context, conn ConnID, data json.RawMessage) {
	var p domain.CallOffer
	if err := json.Unmarshal(data, &p); err != nil {
		rt.log.Warnf("dropping malformed call-offer from %s: %v", conn, err)
		return
	}
	roomID := p.RoomID
	p.RoomID = ""
	p.From = string(conn)
	rt.sendToRoom(ctx, roomID, domain.EventCallOffer, p, conn)
}

func (rt *Router) relayAnswer(ctx context.Context, conn ConnID, data json.RawMessage) {
	var p domain.CallAnswer
	if err := json.Unmarshal(data, &p); err != nil {
		rt.log.Warnf("dropping malformed call-answer from %s: %v", conn, err)
		return
	}
	roomID := p.RoomID
	p.RoomID = ""
	p.From = string(conn)
	rt.sendToRoom(ctx, roomID, domain.EventCallAnswer, p, conn)
}

func (rt *Router) relayCandidate(ctx context.Context, conn ConnID, data json.RawMessage) {
	var p domain.ICECandidate
	if err := json.Unmarshal(data, &p); err != nil {
		rt.log.Warnf("dropping malformed ice-candidate from %s: %v", conn, err)
		return
	}
	roomID := p.RoomID
	p.RoomID = ""
	p.From = string(conn)
	rt.sendToRoom(ctx, roomID, domain.EventICECandidate, p, conn)
}

func (rt *Router) relayCallEnded(ctx context.Context, conn ConnID, data json.RawMessage) {
	var p domain.CallEnded
	if err := json.Unmarshal(data, &p); err != nil {
		rt.log.Warnf("dropping malformed call-ended from %s: %v", conn, err)
		return
	}
	roomID := p.RoomID
	p.RoomID = ""
	p.From = string(conn)
	rt.sendToRoom(ctx, roomID, domain.EventCallEnded, p, conn)
}

func (rt *Router) relayVideoToggle(ctx context.Context, conn ConnID, data json.RawMessage) {
	var p domain.VideoToggle
	if err := json.Unmarshal(data, &p); err != nil {
		rt.log.Warnf("dropping malformed video-toggle from %s: %v", conn, err)
		return
	}
	roomID := p.RoomID
	p.RoomID = ""
	p.From = string(conn)
	rt.sendToRoom(ctx, roomID, domain.EventVideoToggle, p, conn)
}

func (rt *Router) sendTo(ctx context.Context, conn ConnID, evt domain.EventType, payload interface{}) {
	if err := rt.sender.SendTo(ctx, conn, evt, payload); err != nil {
		rt.log.Errorf("failed to send %s to %s: %v", evt, conn, err)
	}
}

func (rt *Router) sendToRoom(ctx context.Context, roomID string, evt domain.EventType, payload interface{}, exclude ConnID) {
	if err := rt.sender.SendToRoom(ctx, roomID, evt, payload, exclude); err != nil {
		rt.log.Errorf("failed to send %s to room %s: %v", evt, roomID, err)
	}
}

// displayName derives the ephemeral typing-indicator label from a user id.
func displayName(userID string) string {
	tail := userID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "User " + tail
}
