package notification

import (
	"time"

	"github.com/foe05/HGMH-App/core"
)

// Notification types
const (
	TypeGastmeldung = "gastmeldung"
	TypeErfassung   = "erfassung"
	TypeInfo        = "info"
)

// Notification is a push message as kept in a user's history.
type Notification struct {
	ID         int       `json:"id"`
	UserID     int       `json:"-"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	DeepLink   string    `json:"deep_link"`
	IsRead     bool      `json:"is_read"`
	ReceivedAt time.Time `json:"received_at"` // UTC
}

// RegisterToken is sent by devices to receive push notifications.
type RegisterToken struct {
	FCMToken string `json:"fcm_token" validate:"required,max=4096"`
	DeviceID string `json:"device_id" validate:"max=255"`
}

func (rt *RegisterToken) Clean() {
	rt.FCMToken = core.CleanString(rt.FCMToken)
	rt.DeviceID = core.CleanString(rt.DeviceID)
}

// Message is the content of a notification to send.
type Message struct {
	Title    string `json:"title" validate:"required,max=200"`
	Message  string `json:"message" validate:"required"`
	Type     string `json:"type" validate:"max=50"`
	DeepLink string `json:"deep_link"`
}

// Targets
const (
	TargetUser       = "user"
	TargetRole       = "role"
	TargetJagdgebiet = "jagdgebiet"
)

// SendRequest addresses a Message to a user, all users with a role or all users of a Jagdgebiet.
type SendRequest struct {
	Message
	Target       string `json:"target" validate:"required,oneof=user role jagdgebiet"`
	UserID       int    `json:"user_id"`
	Role         string `json:"role"`
	JagdgebietID int    `json:"jagdgebiet_id"`
}

// SendResult is the outcome of sending to a single user.
type SendResult struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}
