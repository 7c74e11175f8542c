package app

import (
	"sync"
	"time"
)

// Notification messages.
const (
	MsgQuotesSynced = "Quotes synced with server!"
	MsgQuotePushed  = "Quote synced with server!"
)

// Notification is a user-facing message about a background outcome.
type Notification struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifications keeps the most recent notification.
type Notifications struct {
	mu     sync.RWMutex
	latest *Notification
	now    func() time.Time
}

// NewNotifications returns an empty notification slot.
func NewNotifications() *Notifications {
	return &Notifications{now: time.Now}
}

// Publish replaces the latest notification.
func (n *Notifications) Publish(message string) Notification {
	note := Notification{Message: message, At: n.now().UTC()}

	n.mu.Lock()
	n.latest = &note
	n.mu.Unlock()

	return note
}

// Latest returns the most recent notification, if any.
func (n *Notifications) Latest() (Notification, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.latest == nil {
		return Notification{}, false
	}
	return *n.latest, true
}
