package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	BusMQTT  = "mqtt"
	BusKafka = "kafka"
	BusNATS  = "nats"

	StateFile     = "file"
	StatePostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("polling_interval", 15*time.Minute)
	v.SetDefault("report_source.url", "")
	v.SetDefault("report_source.token", "")
	v.SetDefault("report_source.lookback", 12*time.Hour)
	v.SetDefault("ble.scan_duration", 10*time.Second)
	v.SetDefault("ble.scan_interval", 30*time.Second)
	v.SetDefault("ble.unseen_threshold", 5*time.Minute)
	v.SetDefault("ble.check_interval", 0)
	v.SetDefault("ble.adapter", "")
	v.SetDefault("call_timeout", 30*time.Second)
	v.SetDefault("bus.kind", BusMQTT)
	v.SetDefault("bus.mqtt.broker", "")
	v.SetDefault("bus.mqtt.port", 1883)
	v.SetDefault("bus.mqtt.username", "")
	v.SetDefault("bus.mqtt.password", "")
	v.SetDefault("bus.mqtt.client_id", "airtag-presence")
	v.SetDefault("bus.kafka.brokers", []string{})
	v.SetDefault("bus.kafka.topic", "airtag-presence")
	v.SetDefault("bus.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("state.kind", StateFile)
	v.SetDefault("state.path", "last_update.json")
	v.SetDefault("state.postgres_url", "")
	v.SetDefault("state.migrations_path", "")
	v.SetDefault("http.addr", "")
}
