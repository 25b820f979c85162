package types

// Telemetry is a point-in-time sample of host load.
type Telemetry struct {
	CPU            float64 `json:"cpu"`
	RAM            float64 `json:"ram"`
	BatteryPercent float64 `json:"battery"`
	IsPluggedIn    bool    `json:"plugged"`
}

// NominalTelemetry is used when no sampler is available: idle machine on mains.
func NominalTelemetry() Telemetry {
	return Telemetry{CPU: 0, RAM: 0, BatteryPercent: 100, IsPluggedIn: true}
}
