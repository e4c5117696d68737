package core

import (
	"context"

	"github.com/JPKrishna28/yt-sync-backend/internal/domain"
	"github.com/JPKrishna28/yt-sync-backend/pkg/logger"
)

// Presence reacts to connection termination. It is purely reactive: the
// transport decides when a connection is gone and calls Disconnect once.
type Presence struct {
	dir    *Directory
	sender Sender
	log    logger.Logger
}

func NewPresence(dir *Directory, sender Sender, log logger.Logger) *Presence {
	return &Presence{
		dir:    dir,
		sender: sender,
		log:    log.WithModule("presence"),
	}
}

// Disconnect removes the connection from every room it occupies and tells
// the remaining members. A room emptied by the removal is gone already, so
// nothing is broadcast for it. Calling Disconnect again for the same
// connection finds no memberships and does nothing.
func (p *Presence) Disconnect(ctx context.Context, conn ConnID) {
	for _, roomID := range p.dir.RoomsOf(conn) {
		res := p.dir.Leave(roomID, conn)
		if res.RoomDeleted {
			p.log.Infof("room %s deleted (empty)", roomID)
			continue
		}
		err := p.sender.SendToRoom(ctx, roomID, domain.EventUserDisconnected, domain.RoomPresence{
			RoomID:     roomID,
			UsersCount: res.MemberCount,
		}, "")
		if err != nil {
			p.log.Errorf("failed to notify room %s about %s leaving: %v", roomID, conn, err)
		}
	}
}
