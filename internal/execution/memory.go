package execution

// MemoryPressure is a coarse classification of device memory headroom.
type MemoryPressure string

const (
	PressureNominal  MemoryPressure = "nominal"
	PressureLow      MemoryPressure = "low"
	PressureCritical MemoryPressure = "critical"
)

// MemoryCheckResult gates whether a heavyweight runtime may be loaded.
type MemoryCheckResult struct {
	AvailableGB    float64        `json:"availableGB"`
	Pressure       MemoryPressure `json:"pressure"`
	CanLoadRuntime bool           `json:"canLoadRuntime"`
	Warning        string         `json:"warning,omitempty"`
}

// ClassifyMemory maps available bytes onto a pressure level. Loading is
// refused only under critical pressure.
func ClassifyMemory(availableBytes int64) MemoryCheckResult {
	const gb = 1 << 30
	availableGB := float64(availableBytes) / float64(gb)

	res := MemoryCheckResult{AvailableGB: availableGB}
	switch {
	case availableBytes < 512*1024*1024:
		res.Pressure = PressureCritical
		res.CanLoadRuntime = false
		res.Warning = "Device memory is critically low; loading the runtime would likely fail."
	case availableBytes < gb:
		res.Pressure = PressureLow
		res.CanLoadRuntime = true
		res.Warning = "Device memory is low; runtime loading may be slow."
	default:
		res.Pressure = PressureNominal
		res.CanLoadRuntime = true
	}
	return res
}
