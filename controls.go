package lapd

import (
	"errors"
	"fmt"

	"github.com/scigolib/lapd/hdfmap"
)

// ErrNullControls reports an empty controls specifier.
var ErrNullControls = errors.New("no control devices specified")

// ControlSpec names one control device, optionally pinned to a
// configuration. An empty Config auto-resolves when the device has exactly
// one configuration.
type ControlSpec struct {
	Name   string
	Config string
}

// conditionControls normalizes control specifiers into a canonical list with
// every configuration resolved. At most one device per control kind is
// allowed.
func conditionControls(fmap *hdfmap.FileMap, specs []ControlSpec) ([]ControlSpec, error) {
	if len(specs) == 0 {
		return nil, ErrNullControls
	}

	seen := make(map[string]bool, len(specs))
	kinds := make(map[hdfmap.ControlKind]string, len(specs))
	out := make([]ControlSpec, 0, len(specs))

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("control device name is empty: %w", ErrNullControls)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("control device %q named twice", spec.Name)
		}
		seen[spec.Name] = true

		m, ok := fmap.Controls[spec.Name]
		if !ok {
			return nil, fmt.Errorf("control device %q not in file", spec.Name)
		}
		cfg, err := m.ConfigNamed(spec.Config)
		if err != nil {
			return nil, err
		}
		if prev, dup := kinds[m.Kind]; dup {
			return nil, fmt.Errorf("control devices %q and %q are both %s controls, one allowed",
				prev, spec.Name, m.Kind)
		}
		kinds[m.Kind] = spec.Name

		out = append(out, ControlSpec{Name: spec.Name, Config: cfg.Name})
	}
	return out, nil
}
