// FILE: lixenwraith/dotenv/timing.go
package dotenv

import "time"

// Core timing constants for env source watching.
const (
	MinDebounce          = 10 * time.Millisecond  // Hard floor for change coalescence
	DefaultDebounce      = 250 * time.Millisecond // File change coalescence period
	DefaultReloadTimeout = 5 * time.Second        // Maximum duration for a reload
)

// Watch channel sizing.
const (
	// DefaultEventBuffer is the capacity of a watch event channel
	DefaultEventBuffer = 32
)
