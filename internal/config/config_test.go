package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckMQTTTopic(t *testing.T) {

	assert := assert.New(t)

	topic, err := CheckMQTTTopic("Wibeee_Home")
	assert.NoError(err)
	assert.Equal("wibeee_home", topic, "lowercased")

	_, err = CheckMQTTTopic("wibeee/home")
	assert.Error(err)

	_, err = CheckMQTTTopic("")
	assert.Error(err)
}

func TestScanInterval(t *testing.T) {
	cfg := WibeeeConfig{ScanIntervalSeconds: 15}
	assert.Equal(t, 15*time.Second, cfg.ScanInterval())
}

func TestPlatformConfig(t *testing.T) {
	cfg := WibeeeConfig{
		Host:                "192.168.1.50",
		Name:                "Home",
		Phases:              1,
		ScanIntervalSeconds: 30,
	}
	pc := cfg.PlatformConfig()
	assert.Equal(t, "192.168.1.50", pc.Host)
	assert.Equal(t, "Home", pc.Name)
	assert.Equal(t, 1, pc.Phases)
	assert.Equal(t, 30*time.Second, pc.ScanInterval)
}

func validConfig() Config {
	return Config{
		Wibeee: WibeeeConfig{
			Host:                "192.168.1.50",
			Phases:              3,
			ScanIntervalSeconds: 10,
		},
		MQTT: MQTTConfig{
			BaseTopic:        "Wibeee",
			HADiscoveryTopic: "homeassistant",
		},
	}
}

func TestNormalize(t *testing.T) {

	cfg := validConfig()
	assert.NoError(t, cfg.Normalize())
	assert.Equal(t, "wibeee", cfg.MQTT.BaseTopic)
}

func TestNormalizeErrors(t *testing.T) {

	cases := map[string]func(*Config){
		"missing host":       func(c *Config) { c.Wibeee.Host = "" },
		"no phases":          func(c *Config) { c.Wibeee.Phases = 0 },
		"zero scan interval": func(c *Config) { c.Wibeee.ScanIntervalSeconds = 0 },
		"bad base topic":     func(c *Config) { c.MQTT.BaseTopic = "a/b" },
		"bad ha topic":       func(c *Config) { c.MQTT.HADiscoveryTopic = "ha#" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Normalize())
		})
	}
}
