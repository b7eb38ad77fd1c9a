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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mrf24j "github.com/pethublocal/go-mrf24j"
	simtest "github.com/pethublocal/go-mrf24j/internal/testing"
	"github.com/pethublocal/go-mrf24j/internal/testing/simradio"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, mrf24j.DefaultPAN, cfg.Radio.PANID)
	assert.Equal(t, mrf24j.DefaultChannel, cfg.Radio.Channel)
	assert.Equal(t, "pethublocal/local", cfg.MQTT.TopicPrefix)
	assert.Len(t, cfg.Devices, 2)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
radio:
  spi_port: /dev/spidev0.0
  reset_pin: GPIO25
  interrupt_pin: GPIO24
  channel: 20
  pan_id: 0x1234
  hwmac: "80:1F:12:FF:FE:E8:8D:D9"
  pa_lna: true
  reset_delay: 50ms
devices:
  - name: cat-flap
    identity: 52E26AFEFF121F80
mqtt:
  broker:
    host: broker.local
  forward_all: true
polling:
  pump_interval: 2ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/spidev0.0", cfg.Radio.SPIPort)
	assert.Equal(t, "GPIO25", cfg.Radio.ResetPin)
	assert.Equal(t, 20, cfg.Radio.Channel)
	assert.Equal(t, uint16(0x1234), cfg.Radio.PANID)
	assert.True(t, cfg.Radio.PALNA)
	assert.Equal(t, 50*time.Millisecond, cfg.Radio.ResetDelay)
	assert.Equal(t, []DeviceConfig{{Name: "cat-flap", Identity: "52E26AFEFF121F80"}}, cfg.Devices)
	assert.Equal(t, "broker.local", cfg.MQTT.Broker.Host)
	assert.Equal(t, 1883, cfg.MQTT.Broker.Port, "unset keys keep defaults")
	assert.True(t, cfg.MQTT.ForwardAll)
	assert.Equal(t, 2*time.Millisecond, cfg.Polling.PumpInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "mqtt:\n  broker:\n    host: from-file\n")
	t.Setenv("PETHUB_MQTT_HOST", "from-env")
	t.Setenv("PETHUB_MQTT_PASSWORD", "secret")
	t.Setenv("PETHUB_CHANNEL", "25")
	t.Setenv("PETHUB_HWMAC", "801F12FFFEE88DD9")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.MQTT.Broker.Host)
	assert.Equal(t, "secret", cfg.MQTT.Auth.Password)
	assert.Equal(t, 25, cfg.Radio.Channel)
	assert.Equal(t, "801F12FFFEE88DD9", cfg.Radio.HWMAC)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PETHUB_SPI_PORT", "/dev/spidev0.1")
	t.Setenv("PETHUB_CHANNEL", "11")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/dev/spidev0.1", cfg.Radio.SPIPort)
	assert.Equal(t, 11, cfg.Radio.Channel)
	assert.Len(t, cfg.Devices, 2)

	t.Setenv("PETHUB_CHANNEL", "27")
	_, err = FromEnv()
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_BadChannelEnv(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("PETHUB_CHANNEL", "eleven")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PETHUB_CHANNEL")
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")

	_, err = Load(writeConfig(t, "radio: [not, a, map]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")

	_, err = Load(writeConfig(t, "radio:\n  channel: 30\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "channel low", mutate: func(c *Config) { c.Radio.Channel = 10 }, wantErr: "radio.channel"},
		{name: "bad hwmac", mutate: func(c *Config) { c.Radio.HWMAC = "80:1F" }, wantErr: "radio.hwmac"},
		{name: "bad identity", mutate: func(c *Config) { c.Devices[0].Identity = "zz" }, wantErr: "devices[0].identity"},
		{
			name: "duplicate identity",
			mutate: func(c *Config) {
				c.Devices[1].Identity = "52:E2:6A:FE:FF:12:1F:80"
			},
			wantErr: "listed twice",
		},
		{name: "no broker", mutate: func(c *Config) { c.MQTT.Broker.Host = "" }, wantErr: "mqtt.broker.host"},
		{name: "qos", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: "mqtt.qos"},
		{name: "wildcard prefix", mutate: func(c *Config) { c.MQTT.TopicPrefix = "pets/#" }, wantErr: "topic_prefix"},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: "influxdb.url"},
		{name: "serial without port", mutate: func(c *Config) { c.Serial.Enabled = true }, wantErr: "serial.port"},
		{name: "zero pump", mutate: func(c *Config) { c.Polling.PumpInterval = 0 }, wantErr: "polling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRadioOptionsAndDeviceSpecs(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Radio.HWMAC = "80:1F:12:FF:FE:E8:8D:D9"
	cfg.Radio.Channel = 11

	opts, err := cfg.RadioOptions()
	require.NoError(t, err)
	require.Len(t, opts, 1)

	radio, err := mrf24j.Open(simradio.Transport{VirtualMRF24J40: simtest.NewVirtualMRF24J40()}, opts...)
	require.NoError(t, err)
	rc := radio.Config()
	assert.Equal(t, 11, rc.Channel)
	assert.Equal(t, "801F12FFFEE88DD9", rc.ExtendedAddress.String())
	assert.True(t, rc.PANCoordinator)

	specs, err := cfg.DeviceSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "162E02C0F9D5B370", specs[1].Identity.String())
}
