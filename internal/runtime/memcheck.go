package runtime

import (
	"codelab/internal/execution"
)

// memProbe reports available device memory in bytes. Swapped in tests.
var memProbe = availableMemoryBytes

// CheckMemory estimates device memory headroom and classifies the pressure.
// Heavyweight runtime loads are refused under critical pressure.
func CheckMemory() execution.MemoryCheckResult {
	avail, err := memProbe()
	if err != nil {
		// Unknown headroom: allow the load but say so.
		return execution.MemoryCheckResult{
			Pressure:       execution.PressureLow,
			CanLoadRuntime: true,
			Warning:        "Could not determine available memory; runtime loading may fail.",
		}
	}
	return execution.ClassifyMemory(avail)
}
