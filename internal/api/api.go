package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"airtag-presence/internal/db"
	"airtag-presence/internal/registry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type repository interface {
	LoadEventsBetween(ctx context.Context, deviceID string, start, end int64) ([]db.DeviceEvent, error)
}

type devices interface {
	Snapshot() []registry.TrackedDevice
}

type API struct {
	DB      repository
	Devices devices
}

type Config struct {
	// DB is optional; without it the timeline route is not mounted.
	DB      repository
	Devices devices
}

func New(cfg Config) *API {
	return &API{DB: cfg.DB, Devices: cfg.Devices}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", a.Health)
	r.Get("/devices", a.ListDevices)
	if a.DB != nil {
		r.Get("/timeline/{device_id}", a.GetDeviceTimeline)
	}
	return r
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (a *API) ListDevices(w http.ResponseWriter, r *http.Request) {
	resp := ListDevicesResponse{Devices: []Device{}}
	for _, d := range a.Devices.Snapshot() {
		resp.Devices = append(resp.Devices, Device{
			DeviceID:   d.ID,
			Presence:   d.Presence.String(),
			LastSeenAt: d.LastSeenAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(r.Context(), w, resp)
}

func (a *API) GetDeviceTimeline(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "device_id")
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	startTime, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		http.Error(w, "invalid start timestamp", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		http.Error(w, "invalid end timestamp", http.StatusBadRequest)
		return
	}
	if endTime.Before(startTime) {
		http.Error(w, "end before start", http.StatusBadRequest)
		return
	}

	events, err := a.DB.LoadEventsBetween(r.Context(), deviceID, startTime.UnixMilli(), endTime.UnixMilli())
	if err != nil {
		slog.ErrorContext(r.Context(), "Error loading device timeline", "device_id", deviceID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := GetDeviceTimelineResponse{Events: []DeviceEvent{}}
	for _, event := range events {
		resp.Events = append(resp.Events, DeviceEvent{
			DeviceID:  event.DeviceID,
			EventType: event.EventType,
			Timestamp: time.UnixMilli(event.Timestamp).UTC().Format(time.RFC3339),
			Latitude:  event.Latitude,
			Longitude: event.Longitude,
			Accuracy:  event.Accuracy,
		})
	}
	writeJSON(r.Context(), w, resp)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(ctx, "Error encoding response", "error", err)
	}
}
