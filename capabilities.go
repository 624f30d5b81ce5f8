package ktree

import (
	engine "github.com/hupe1980/ktree/internal/ktree"
)

// Capabilities summarizes the vector-width SIMD features the current
// CPU offers. It is informational: distance computation in this
// package is always the plain scalar path, never dispatched on these
// features (see package vector/distance).
type Capabilities = engine.Capabilities

// DetectCapabilities reports the current CPU's relevant feature bits.
func DetectCapabilities() Capabilities {
	return engine.DetectCapabilities()
}
