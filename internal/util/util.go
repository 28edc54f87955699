package util

import (
	"github.com/berfenger/wibeee2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Wibeee: config.WibeeeConfig{
			Host:                "-.-.-.-",
			Name:                "Wibeee",
			Phases:              3,
			ScanIntervalSeconds: 1,
		},
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "wibeee",
			HADiscoveryTopic: "homeassistant",
		},
		Port: 8080,
	}
}
