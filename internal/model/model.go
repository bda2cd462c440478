package model

import "time"

const (
	MinRadiusM = 10
	MaxRadiusM = 1000
)

type Reminder struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Latitude          float64    `json:"latitude"`
	Longitude         float64    `json:"longitude"`
	RadiusM           int        `json:"radius_m"`
	Address           string     `json:"address,omitempty"`
	Active            bool       `json:"active"`
	NotificationTitle string     `json:"notification_title"`
	NotificationBody  string     `json:"notification_body"`
	CreatedAt         time.Time  `json:"created_at"`
	TriggeredAt       *time.Time `json:"triggered_at,omitempty"`
}

// ReminderUpdate carries a partial update: nil fields are left untouched.
type ReminderUpdate struct {
	Title             *string  `json:"title,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	RadiusM           *int     `json:"radius_m,omitempty"`
	Address           *string  `json:"address,omitempty"`
	Active            *bool    `json:"active,omitempty"`
	NotificationTitle *string  `json:"notification_title,omitempty"`
	NotificationBody  *string  `json:"notification_body,omitempty"`
}

func (u ReminderUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Latitude == nil &&
		u.Longitude == nil && u.RadiusM == nil && u.Address == nil &&
		u.Active == nil && u.NotificationTitle == nil && u.NotificationBody == nil
}

// GeofenceRegion is the projection of an active reminder handed to the
// region monitor. It is never persisted.
type GeofenceRegion struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusM   int     `json:"radius_m"`
}

// Notification is the payload delivered to the notification center.
type Notification struct {
	DispatchID string            `json:"dispatch_id"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Data       map[string]string `json:"data,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type LocationResponse struct {
	LocationRequest
	RegionIDs []string `json:"region_ids"`
}
