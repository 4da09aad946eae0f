package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIntervals(); err != nil {
		return err
	}
	if err := c.validateReportSource(); err != nil {
		return err
	}
	if err := c.validateBus(); err != nil {
		return err
	}
	if err := c.validateState(); err != nil {
		return err
	}
	return c.validateAirTags()
}

func (c *Config) validateIntervals() error {
	if c.PollingInterval <= 0 {
		return errors.New("polling_interval must be positive")
	}
	if c.CallTimeout <= 0 {
		return errors.New("call_timeout must be positive")
	}
	if c.BLE.ScanDuration <= 0 || c.BLE.ScanInterval < 0 {
		return errors.New("ble.scan_duration must be positive and ble.scan_interval not negative")
	}
	if c.BLE.UnseenThreshold <= 0 {
		return errors.New("ble.unseen_threshold must be positive")
	}
	if c.BLE.CheckInterval <= 0 {
		return errors.New("ble.check_interval must be positive when ble.scan_interval is zero")
	}
	if c.ReportSource.Lookback <= 0 {
		return errors.New("report_source.lookback must be positive")
	}
	return nil
}

func (c *Config) validateReportSource() error {
	if strings.TrimSpace(c.ReportSource.URL) == "" {
		return errors.New("report_source.url must be set")
	}
	return nil
}

func (c *Config) validateBus() error {
	switch c.Bus.Kind {
	case BusMQTT:
		if strings.TrimSpace(c.Bus.MQTT.Broker) == "" {
			return errors.New("bus.mqtt.broker must be set when bus.kind is mqtt")
		}
		if c.Bus.MQTT.Port <= 0 || c.Bus.MQTT.Port > 65535 {
			return fmt.Errorf("bus.mqtt.port %d out of range", c.Bus.MQTT.Port)
		}
	case BusKafka:
		if len(c.Bus.Kafka.Brokers) == 0 {
			return errors.New("bus.kafka.brokers must be set when bus.kind is kafka")
		}
		if strings.TrimSpace(c.Bus.Kafka.Topic) == "" {
			return errors.New("bus.kafka.topic must be set when bus.kind is kafka")
		}
	case BusNATS:
		if strings.TrimSpace(c.Bus.NATS.URL) == "" {
			return errors.New("bus.nats.url must be set when bus.kind is nats")
		}
	default:
		return fmt.Errorf("bus.kind %q must be one of %s, %s, %s", c.Bus.Kind, BusMQTT, BusKafka, BusNATS)
	}
	return nil
}

func (c *Config) validateState() error {
	switch c.State.Kind {
	case StateFile:
		if c.State.Path == "" {
			return errors.New("state.path must be set when state.kind is file")
		}
	case StatePostgres:
		if strings.TrimSpace(c.State.PostgresURL) == "" {
			return errors.New("state.postgres_url must be set when state.kind is postgres")
		}
	default:
		return fmt.Errorf("state.kind %q must be one of %s, %s", c.State.Kind, StateFile, StatePostgres)
	}
	return nil
}

func (c *Config) validateAirTags() error {
	if len(c.AirTags) == 0 {
		return errors.New("at least one airtag must be configured")
	}
	seen := make(map[string]struct{}, len(c.AirTags))
	for i, tag := range c.AirTags {
		if tag.ID == "" {
			return fmt.Errorf("airtags[%d].ha_mqtt_id must be set", i)
		}
		if strings.ContainsAny(tag.ID, "/+#") {
			return fmt.Errorf("airtags[%d].ha_mqtt_id %q must not contain topic separators or wildcards", i, tag.ID)
		}
		if _, ok := seen[tag.ID]; ok {
			return fmt.Errorf("airtags[%d].ha_mqtt_id %q is duplicated", i, tag.ID)
		}
		seen[tag.ID] = struct{}{}
		if tag.CredentialPath == "" {
			return fmt.Errorf("airtags[%d].credential_path must be set", i)
		}
	}
	return nil
}
