package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/veranda/pkg/identity"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
)

type Event string

const (
	EventNewMessage   Event = "new-message"
	EventStatusUpdate Event = "status-update"
)

const AdminChannel = "admin-notifications"

func UserChannel(userID uuid.UUID) string {
	return "user-" + userID.String()
}

// ChannelFor is the channel a caller is allowed to listen on.
func ChannelFor(who identity.Identity) string {
	if who.IsAdmin() {
		return AdminChannel
	}
	return UserChannel(who.UserID)
}

// Envelope wraps every emission. ID is unique per emission so consumers
// can drop redeliveries.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	Channel   string          `json:"channel"`
	Event     Event           `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emittedAt"`
}

type Sender struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

type MessageView struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	FromUser  Sender    `json:"fromUser"`
}

type NewMessagePayload struct {
	Message        MessageView `json:"message"`
	QuoteRequestID uuid.UUID   `json:"quoteRequestId"`
}

type StatusUpdatePayload struct {
	QuoteRequestID uuid.UUID     `json:"quoteRequestId"`
	Status         models.Status `json:"status"`
}

// RouteNewMessage sends admin replies to the owner and client messages to
// the shared admin channel.
func RouteNewMessage(ownerID uuid.UUID, senderRole identity.Role) string {
	if senderRole == identity.RoleAdmin {
		return UserChannel(ownerID)
	}
	return AdminChannel
}

func RouteStatusUpdate(ownerID uuid.UUID) string {
	return UserChannel(ownerID)
}

func NewMessageEnvelope(req *models.QuoteRequest, msg *models.Message, senderRole identity.Role, id uuid.UUID, at time.Time) (Envelope, error) {
	payload := NewMessagePayload{
		Message: MessageView{
			ID:        msg.ID,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt.UTC(),
			FromUser: Sender{
				ID:   msg.FromUser.ID,
				Name: msg.FromUser.Name,
				Role: msg.FromUser.Role,
			},
		},
		QuoteRequestID: req.ID,
	}
	return wrap(RouteNewMessage(req.UserID, senderRole), EventNewMessage, payload, id, at)
}

func StatusUpdateEnvelope(req *models.QuoteRequest, id uuid.UUID, at time.Time) (Envelope, error) {
	payload := StatusUpdatePayload{QuoteRequestID: req.ID, Status: req.Status}
	return wrap(RouteStatusUpdate(req.UserID), EventStatusUpdate, payload, id, at)
}

func wrap(channel string, event Event, payload any, id uuid.UUID, at time.Time) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return Envelope{
		ID:        id,
		Channel:   channel,
		Event:     event,
		Payload:   b,
		EmittedAt: at.UTC(),
	}, nil
}
