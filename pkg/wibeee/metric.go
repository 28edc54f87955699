package wibeee

const (
	METRIC_VRMS                = "vrms"
	METRIC_IRMS                = "irms"
	METRIC_FREQUENCY           = "frecuencia"
	METRIC_ACTIVE_POWER        = "p_activa"
	METRIC_REACTIVE_POWER_IND  = "p_reactiva_ind"
	METRIC_REACTIVE_POWER_CAP  = "p_reactiva_cap"
	METRIC_APPARENT_POWER      = "p_aparent"
	METRIC_POWER_FACTOR        = "factor_potencia"
	METRIC_ACTIVE_ENERGY       = "energia_activa"
	METRIC_REACTIVE_ENERGY_IND = "energia_reactiva_ind"
	METRIC_REACTIVE_ENERGY_CAP = "energia_reactiva_cap"
)

// MetricDefinition describes a quantity reported by the device.
type MetricDefinition struct {
	Label string
	Unit  string
}

// catalog of every metric the device documents. Only a subset is exposed,
// see exposedMetrics.
var metricCatalog = map[string]MetricDefinition{
	METRIC_VRMS:                {Label: "Vrms", Unit: "V"},
	METRIC_IRMS:                {Label: "Irms", Unit: "A"},
	METRIC_FREQUENCY:           {Label: "Frequency", Unit: "Hz"},
	METRIC_ACTIVE_POWER:        {Label: "Active Power", Unit: "W"},
	METRIC_REACTIVE_POWER_IND:  {Label: "Inductive Reactive Power", Unit: "VArL"},
	METRIC_REACTIVE_POWER_CAP:  {Label: "Capacitive Reactive Power", Unit: "VArC"},
	METRIC_APPARENT_POWER:      {Label: "Apparent Power", Unit: "VA"},
	METRIC_POWER_FACTOR:        {Label: "Power Factor", Unit: "PF"},
	METRIC_ACTIVE_ENERGY:       {Label: "Active Energy", Unit: "Wh"},
	METRIC_REACTIVE_ENERGY_IND: {Label: "Inductive Reactive Energy", Unit: "VArLh"},
	METRIC_REACTIVE_ENERGY_CAP: {Label: "Capacitive Reactive Energy", Unit: "VArCh"},
}

var exposedMetrics = map[string]struct{}{
	METRIC_VRMS:         {},
	METRIC_IRMS:         {},
	METRIC_FREQUENCY:    {},
	METRIC_ACTIVE_POWER: {},
}

// LookupMetric returns the catalog entry for a metric key.
func LookupMetric(key string) (MetricDefinition, bool) {
	def, ok := metricCatalog[key]
	return def, ok
}

// IsExposedMetric reports whether readings are created for the metric key.
func IsExposedMetric(key string) bool {
	_, ok := exposedMetrics[key]
	return ok
}

// KnownMetrics returns the keys of the full catalog.
func KnownMetrics() []string {
	keys := make([]string, 0, len(metricCatalog))
	for k := range metricCatalog {
		keys = append(keys, k)
	}
	return keys
}
