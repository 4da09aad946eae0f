package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Device struct {
	DeviceID   string `json:"deviceID"`
	Presence   string `json:"presence"`
	LastSeenAt string `json:"lastSeenAt"`
}

type DeviceEvent struct {
	DeviceID  string   `json:"deviceID"`
	EventType string   `json:"eventType"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Prints every tracked device and, when the daemon stores a timeline, its
// events over the last -since window.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "airtagd status API")
	since := flag.Duration("since", 24*time.Hour, "timeline window")
	flag.Parse()

	// 1. GET /devices
	var devices struct {
		Devices []Device `json:"devices"`
	}
	if err := getJSON(*baseURL+"/devices", &devices); err != nil {
		panic(err)
	}
	for _, d := range devices.Devices {
		fmt.Printf("%-20s %-8s last seen %s\n", d.DeviceID, d.Presence, d.LastSeenAt)
	}

	// 2. GET /timeline/{device_id}?start=...&end=...
	start := time.Now().Add(-*since).Format(time.RFC3339)
	end := time.Now().Format(time.RFC3339)
	for _, d := range devices.Devices {
		getURL := fmt.Sprintf("%s/timeline/%s?start=%s&end=%s",
			*baseURL, url.PathEscape(d.DeviceID), url.QueryEscape(start), url.QueryEscape(end))
		var timeline struct {
			Events []DeviceEvent `json:"events"`
		}
		if err := getJSON(getURL, &timeline); err != nil {
			fmt.Printf("timeline for %s unavailable: %v\n", d.DeviceID, err)
			continue
		}
		fmt.Printf("\n%s:\n", d.DeviceID)
		for _, e := range timeline.Events {
			if e.Latitude != nil && e.Longitude != nil {
				fmt.Printf("  %s %-9s %.5f,%.5f\n", e.Timestamp, e.EventType, *e.Latitude, *e.Longitude)
				continue
			}
			fmt.Printf("  %s %s\n", e.Timestamp, e.EventType)
		}
	}
}

func getJSON(u string, out any) error {
	resp, err := http.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %s: %s", u, resp.Status, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
