package hdfmap

// ConType is the coarse device category a mapped group belongs to.
type ConType string

const (
	ConTypeDigitizer ConType = "digitizer"
	ConTypeControl   ConType = "control"
	ConTypeMSI       ConType = "msi"
)

// ControlKind is the functional category of a control device. Readers allow
// at most one control per kind in a single read.
type ControlKind string

const (
	KindWaveform ControlKind = "waveform"
	KindPower    ControlKind = "power"
	KindMotion   ControlKind = "motion"
)

// DeviceInfo identifies a mapped device group.
type DeviceInfo struct {
	Name    string
	Path    string
	ConType ConType
}
