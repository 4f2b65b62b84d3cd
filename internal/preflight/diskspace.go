// Package preflight runs checks the Worker performs before starting or
// resuming a transfer, so a doomed download never touches the
// ProgressRecord or the network.
package preflight

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// spaceBuffer is held back beyond the strict requirement so the device
// never runs its flash filesystem down to zero free blocks.
const spaceBuffer = 1 * 1024 * 1024 // 1MB; the OTA image itself is small

// CheckDiskSpace verifies that the volume containing dir has at least
// requiredBytes plus a small safety buffer free. It returns a descriptive
// error (mapped by the Worker to the Io error class) when space is
// insufficient.
func CheckDiskSpace(dir string, requiredBytes int64) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		return fmt.Errorf("preflight: check disk space: %w", err)
	}
	if int64(usage.Free) < requiredBytes+spaceBuffer {
		return fmt.Errorf("preflight: insufficient space: need %d bytes, have %d free", requiredBytes, usage.Free)
	}
	return nil
}
