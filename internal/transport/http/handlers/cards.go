package handlers

import (
	"context"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/dto"
)

const birthdateLayout = "2006-01-02"

// cardMapper turns profiles into response cards. Photos are presigned when the
// profile service has a signer.
type cardMapper struct {
	profiles *profilesvc.Service
}

func (m cardMapper) card(ctx context.Context, p profilesvc.Profile) dto.ProfileCardResponse {
	out := dto.ProfileCardResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Gender:      string(p.Gender),
		Age:         p.Age,
		Interests:   p.Interests,
		PhotoURLs:   []string{},
	}
	if out.Interests == nil {
		out.Interests = []string{}
	}
	if p.Birthdate != nil {
		out.Birthdate = p.Birthdate.Format(birthdateLayout)
	}
	if m.profiles != nil {
		if urls := m.profiles.PhotoURLs(ctx, p); len(urls) > 0 {
			out.PhotoURLs = urls
		}
	}
	return out
}

func sessionResponse(session model.FeedSession) dto.FeedSessionResponse {
	return dto.FeedSessionResponse{
		ID:        session.ID,
		Kind:      string(session.Kind),
		Size:      session.Size,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
}

func messageResponse(msg model.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Seq:            msg.Seq,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		CreatedAt:      msg.CreatedAt,
		Seen:           msg.Seen,
		SeenAt:         msg.SeenAt,
	}
}
