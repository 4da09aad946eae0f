package db

const (
	EventHome     = "home"
	EventNotHome  = "not_home"
	EventLocation = "location"
	EventOffline  = "offline"
)

// DeviceEvent is one row of a device's timeline. Coordinates are only set
// for location events.
type DeviceEvent struct {
	DeviceID  string   `json:"device_id" db:"device_id"`
	EventType string   `json:"event_type" db:"event_type"`
	Timestamp int64    `json:"timestamp" db:"timestamp"`
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" db:"accuracy"`
}
