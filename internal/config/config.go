// Copyright 2026 The PetHub Local Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the hub daemon configuration from YAML, applies
// PETHUB_* environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/protocol"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration structure.
type Config struct {
	Radio    RadioConfig    `yaml:"radio"`
	Devices  []DeviceConfig `yaml:"devices"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Serial   SerialConfig   `yaml:"serial"`
	Logging  LoggingConfig  `yaml:"logging"`
	Polling  PollingConfig  `yaml:"polling"`
}

// RadioConfig describes the transceiver and how it is wired.
type RadioConfig struct {
	// SPIPort is a periph port name such as "/dev/spidev0.0". Empty selects
	// the first registered port.
	SPIPort      string `yaml:"spi_port"`
	SPIFrequency int    `yaml:"spi_frequency"`
	ResetPin     string `yaml:"reset_pin"`
	InterruptPin string `yaml:"interrupt_pin"`

	Channel      int    `yaml:"channel"`
	PANID        uint16 `yaml:"pan_id"`
	ShortAddress uint16 `yaml:"short_address"`
	// HWMAC is the hub's extended address, e.g. "80:1F:12:FF:FE:E8:8D:D9".
	// Empty reads it from the chip.
	HWMAC       string        `yaml:"hwmac"`
	PALNA       bool          `yaml:"pa_lna"`
	Promiscuous bool          `yaml:"promiscuous"`
	ResetDelay  time.Duration `yaml:"reset_delay"`
}

// DeviceConfig is one whitelisted device.
type DeviceConfig struct {
	Name     string `yaml:"name"`
	Identity string `yaml:"identity"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	// ForwardAll publishes every received payload, handshakes included.
	ForwardAll bool `yaml:"forward_all"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig holds reconnect delays in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// SerialConfig configures the serial console sink.
type SerialConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	// Debug enables the driver's register-level debug output.
	Debug bool `yaml:"debug"`
	// SessionDir, when set, also writes driver debug output to a session log
	// file in that directory.
	SessionDir string `yaml:"session_dir"`
}

// PollingConfig sets the event loop intervals.
type PollingConfig struct {
	PumpInterval time.Duration `yaml:"pump_interval"`
	// PollInterval is used when no interrupt pin is wired.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides. Values are layered: defaults, then the file, then PETHUB_*
// variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// FromEnv returns the defaults with PETHUB_* overrides applied, for running
// without a config file.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with the stock hub settings and the two devices
// the hub was first paired with.
func Default() *Config {
	return &Config{
		Radio: RadioConfig{
			SPIFrequency: 1_000_000,
			Channel:      mrf24j.DefaultChannel,
			PANID:        mrf24j.DefaultPAN,
			ShortAddress: mrf24j.DisabledShortAddress,
			ResetDelay:   mrf24j.DefaultResetDelay,
		},
		Devices: []DeviceConfig{
			{Name: "device-1", Identity: "52E26AFEFF121F80"},
			{Name: "device-2", Identity: "162E02C0F9D5B370"},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "pethublocal",
			},
			QoS:         0,
			TopicPrefix: "pethublocal/local",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 5,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "pethub",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Serial: SerialConfig{
			BaudRate: 115200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Polling: PollingConfig{
			PumpInterval: 5 * time.Millisecond,
			PollInterval: 10 * time.Millisecond,
		},
	}
}

// applyEnvOverrides applies PETHUB_SECTION_KEY environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PETHUB_SPI_PORT"); v != "" {
		cfg.Radio.SPIPort = v
	}
	if v := os.Getenv("PETHUB_HWMAC"); v != "" {
		cfg.Radio.HWMAC = v
	}
	if v := os.Getenv("PETHUB_CHANNEL"); v != "" {
		ch, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PETHUB_CHANNEL: %w", err)
		}
		cfg.Radio.Channel = ch
	}

	if v := os.Getenv("PETHUB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PETHUB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PETHUB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("PETHUB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("PETHUB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Radio.Channel < mrf24j.MinChannel || c.Radio.Channel > mrf24j.MaxChannel {
		errs = append(errs, fmt.Sprintf("radio.channel must be between %d and %d", mrf24j.MinChannel, mrf24j.MaxChannel))
	}
	if c.Radio.SPIFrequency <= 0 {
		errs = append(errs, "radio.spi_frequency must be positive")
	}
	if c.Radio.HWMAC != "" {
		if _, err := mrf24j.ParseExtendedAddress(c.Radio.HWMAC); err != nil {
			errs = append(errs, fmt.Sprintf("radio.hwmac: %v", err))
		}
	}
	if c.Radio.ResetDelay < 0 {
		errs = append(errs, "radio.reset_delay cannot be negative")
	}

	seen := make(map[mrf24j.ExtendedAddress]bool, len(c.Devices))
	for i, d := range c.Devices {
		id, err := mrf24j.ParseExtendedAddress(d.Identity)
		if err != nil {
			errs = append(errs, fmt.Sprintf("devices[%d].identity: %v", i, err))
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Sprintf("devices[%d].identity %s is listed twice", i, id))
		}
		seen[id] = true
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicPrefix == "" || strings.ContainsAny(c.MQTT.TopicPrefix, "+#") {
		errs = append(errs, "mqtt.topic_prefix must be a non-empty topic without wildcards")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if c.Serial.Enabled {
		if c.Serial.Port == "" {
			errs = append(errs, "serial.port is required when serial is enabled")
		}
		if c.Serial.BaudRate <= 0 {
			errs = append(errs, "serial.baud_rate must be positive")
		}
	}

	if c.Polling.PumpInterval <= 0 || c.Polling.PollInterval <= 0 {
		errs = append(errs, "polling intervals must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// RadioOptions converts the radio section to driver options.
func (c *Config) RadioOptions() ([]mrf24j.Option, error) {
	rc := mrf24j.DefaultConfig()
	rc.PAN = c.Radio.PANID
	rc.ShortAddress = c.Radio.ShortAddress
	rc.Channel = c.Radio.Channel
	rc.ResetDelay = c.Radio.ResetDelay
	rc.PALNA = c.Radio.PALNA
	rc.Promiscuous = c.Radio.Promiscuous
	if c.Radio.HWMAC != "" {
		addr, err := mrf24j.ParseExtendedAddress(c.Radio.HWMAC)
		if err != nil {
			return nil, fmt.Errorf("radio.hwmac: %w", err)
		}
		rc.ExtendedAddress = addr
	}
	return []mrf24j.Option{mrf24j.WithConfig(rc)}, nil
}

// DeviceSpecs converts the device whitelist for protocol.NewDeviceTable.
func (c *Config) DeviceSpecs() ([]protocol.DeviceSpec, error) {
	specs := make([]protocol.DeviceSpec, 0, len(c.Devices))
	for i, d := range c.Devices {
		id, err := mrf24j.ParseExtendedAddress(d.Identity)
		if err != nil {
			return nil, fmt.Errorf("devices[%d]: %w", i, err)
		}
		specs = append(specs, protocol.DeviceSpec{Name: d.Name, Identity: id})
	}
	return specs, nil
}
