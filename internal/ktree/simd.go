package ktree

import "github.com/klauspost/cpuid/v2"

// Capabilities summarizes the vector-width SIMD features the current
// CPU offers, independent of any tree's dimensionality. It is informational
// only: distance computation in this repository is always the plain
// scalar path in package vector/distance, never dispatched on these
// features. Actual SIMD kernel selection is an external collaborator
// outside this engine's scope; this exists so operators can see, via
// the logger, whether a faster external kernel would be worth building
// for their hardware.
type Capabilities struct {
	HasAVX2   bool
	HasAVX512 bool
	HasNEON   bool
	HasFMA3   bool
}

// DetectCapabilities reports the current CPU's relevant feature bits.
func DetectCapabilities() Capabilities {
	return Capabilities{
		HasAVX2:   cpuid.CPU.Has(cpuid.AVX2),
		HasAVX512: cpuid.CPU.Has(cpuid.AVX512F),
		HasNEON:   cpuid.CPU.Has(cpuid.ASIMD),
		HasFMA3:   cpuid.CPU.Has(cpuid.FMA3),
	}
}
