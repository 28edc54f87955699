package config

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/wibeee2mqtt/pkg/wibeee"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	Wibeee   WibeeeConfig `mapstructure:"wibeee"`
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	Port     uint         `mapstructure:"port"`
	HttpLog  bool         `mapstructure:"http_log"`
}

type WibeeeConfig struct {
	Host                string
	Name                string
	Phases              int
	ScanIntervalSeconds uint32 `mapstructure:"scan_interval_seconds"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func (c WibeeeConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

func (c WibeeeConfig) PlatformConfig() wibeee.PlatformConfig {
	return wibeee.PlatformConfig{
		Host:         c.Host,
		Name:         c.Name,
		Phases:       c.Phases,
		ScanInterval: c.ScanInterval(),
	}
}

// Normalize checks bounds and fixes topics in place.
func (c *Config) Normalize() error {
	if c.Wibeee.Host == "" {
		return errors.New("config param wibeee.host is required")
	}
	if c.Wibeee.Phases < 1 {
		return errors.New("config param wibeee.phases should be >= 1")
	}
	if c.Wibeee.ScanIntervalSeconds < 1 {
		return errors.New("config param wibeee.scan_interval_seconds should be >= 1")
	}

	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(c.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	c.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := CheckMQTTTopic(c.MQTT.HADiscoveryTopic)
	if err != nil {
		return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	c.MQTT.HADiscoveryTopic = hadBaseTopic

	return nil
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
