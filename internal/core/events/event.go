package events

import (
	. "github.com/berfenger/wibeee2mqtt/internal/core/domain"
)

// ReadingsToUpdateEvents builds one text event per reading. Values are
// passed through as the device rendered them.
func ReadingsToUpdateEvents(readings []ReadingInfo) []any {
	var events []any
	for _, r := range readings {
		events = append(events, TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: r.Key,
			},
			Value: r.Value,
		})
	}
	return events
}

func BridgeStateUpdateEvents(online bool) []any {
	var events []any
	events = append(events, BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	})
	return events
}
