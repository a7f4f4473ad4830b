package hdfmap

import "fmt"

// Diagnostic records a recoverable structural issue found while mapping a
// device. The affected unit is excluded (or marked indeterminate) and
// mapping continues; callers inspect the list to learn what was degraded.
type Diagnostic struct {
	// Unit is the path of the excluded or degraded element.
	Unit   string
	Reason string
}

func (d Diagnostic) String() string {
	return d.Unit + ": " + d.Reason
}

// MappingError aborts construction of one device's map. Sibling devices are
// unaffected; the file-level map records the failure as a diagnostic.
type MappingError struct {
	// Device is the group path of the device whose map failed.
	Device string
	Reason string
	Err    error
}

func (e *MappingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mapping %s: %s: %v", e.Device, e.Reason, e.Err)
	}
	return fmt.Sprintf("mapping %s: %s", e.Device, e.Reason)
}

func (e *MappingError) Unwrap() error { return e.Err }

func mappingErrorf(device, format string, args ...interface{}) *MappingError {
	return &MappingError{Device: device, Reason: fmt.Sprintf(format, args...)}
}
