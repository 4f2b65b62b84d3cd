// Package extmcu defines the synchronous transport to the attached
// external microcontroller whose firmware is the target of the update.
// The real transport (spec.md §6) is a single "push image, get
// success/fail" call over whatever bus connects the gateway to the
// ExtMCU; that link is out of scope here.
package extmcu

// Transport is the ExtMCU capability the Apply Coordinator consumes.
type Transport interface {
	// Init performs one-time setup; called once at agent startup.
	Init() error
	// GetVersion returns the firmware version currently installed on the
	// attached MCU.
	GetVersion() (uint32, error)
	// Download synchronously pushes the local image into the ExtMCU,
	// returning true on success.
	Download() (bool, error)
}
