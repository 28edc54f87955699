package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/berfenger/wibeee2mqtt/pkg/wibeee"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE       = "bridge"
	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"
	DEVICE_CLASS_APPARENT_POWER  = "apparent_power"
	DEVICE_CLASS_CURRENT         = "current"
	DEVICE_CLASS_ENERGY          = "energy"
	DEVICE_CLASS_FREQUENCY       = "frequency"
	DEVICE_CLASS_POWER           = "power"
	DEVICE_CLASS_VOLTAGE         = "voltage"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"
)

type metricClass struct {
	deviceClass string
	stateClass  string
	icon        string
}

// Home Assistant classes per metric. Metrics whose device unit is not one HA
// accepts for a class (VArL, PF...) only get a state class.
var metricClasses = map[string]metricClass{
	wibeee.METRIC_VRMS:                {DEVICE_CLASS_VOLTAGE, STATE_CLASS_MEASUREMENT, ""},
	wibeee.METRIC_IRMS:                {DEVICE_CLASS_CURRENT, STATE_CLASS_MEASUREMENT, ""},
	wibeee.METRIC_FREQUENCY:           {DEVICE_CLASS_FREQUENCY, STATE_CLASS_MEASUREMENT, "mdi:sine-wave"},
	wibeee.METRIC_ACTIVE_POWER:        {DEVICE_CLASS_POWER, STATE_CLASS_MEASUREMENT, ""},
	wibeee.METRIC_APPARENT_POWER:      {DEVICE_CLASS_APPARENT_POWER, STATE_CLASS_MEASUREMENT, ""},
	wibeee.METRIC_ACTIVE_ENERGY:       {DEVICE_CLASS_ENERGY, STATE_CLASS_TOTAL_INCREASING, ""},
	wibeee.METRIC_REACTIVE_POWER_IND:  {"", STATE_CLASS_MEASUREMENT, "mdi:flash-outline"},
	wibeee.METRIC_REACTIVE_POWER_CAP:  {"", STATE_CLASS_MEASUREMENT, "mdi:flash-outline"},
	wibeee.METRIC_POWER_FACTOR:        {"", STATE_CLASS_MEASUREMENT, "mdi:angle-acute"},
	wibeee.METRIC_REACTIVE_ENERGY_IND: {"", STATE_CLASS_TOTAL_INCREASING, "mdi:counter"},
	wibeee.METRIC_REACTIVE_ENERGY_CAP: {"", STATE_CLASS_TOTAL_INCREASING, "mdi:counter"},
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("wibeee_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Wibeee2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Wibeee2MQTT %s", md5HashShort(baseTopic)),
	}
}

func MeterDevice(info *MeterInfo) Device {
	return Device{
		Id:           fmt.Sprintf("wibeee_meter_%s", md5HashShort(info.Host)),
		Manufacturer: "Circutor",
		Model:        "Wibeee",
		Name:         info.Name,
		ConfigURL:    fmt.Sprintf("http://%s/", info.Host),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

// MeterSensors describes one sensor per reading. Only the first sensor
// carries the full device description; the rest reference it by id.
func MeterSensors(meterDevice Device, readings []ReadingInfo) []GenericSensor {

	sensors := make([]GenericSensor, 0, len(readings))

	for i, r := range readings {
		device := meterDevice
		if i > 0 {
			device = IdDevice(meterDevice)
		}
		class := metricClasses[r.Metric]
		sensors = append(sensors, GenericSensor{
			Device:            device,
			Id:                r.Key,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              r.Name,
			UnitOfMeasurement: r.Unit,
			StateClass:        class.stateClass,
			DeviceClass:       class.deviceClass,
			Icon:              class.icon,
			UniqueId:          uniqueId(meterDevice.Id, r.Key),
		})
	}

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
