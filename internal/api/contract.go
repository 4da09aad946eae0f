package api

type DeviceEvent struct {
	DeviceID  string   `json:"deviceID"`
	EventType string   `json:"eventType"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

type GetDeviceTimelineResponse struct {
	Events []DeviceEvent `json:"events"`
}

type Device struct {
	DeviceID   string `json:"deviceID"`
	Presence   string `json:"presence"`
	LastSeenAt string `json:"lastSeenAt"`
}

type ListDevicesResponse struct {
	Devices []Device `json:"devices"`
}
