package lapd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scigolib/lapd/hdfmap"
)

const overviewItemWidth = 56

// statusLine renders one "item ~~~ status  note" report row, indented with
// "|-- " markers.
func statusLine(indent int, item, status, note string) string {
	left := strings.Repeat("|-- ", indent) + item
	if pad := overviewItemWidth - len(left); pad > 1 {
		left += " " + strings.Repeat("~", pad-1)
	}
	line := left + " " + status
	if note != "" {
		line += "  " + note
	}
	return line
}

// Overview renders a human-readable report of everything mapped in the
// file: MSI diagnostics, digitizer configurations and connections, control
// devices, unmapped groups, and accumulated mapping diagnostics.
func (f *File) Overview() string {
	var b strings.Builder
	rule := strings.Repeat("=", overviewItemWidth+16)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, centered("LaPD HDF5 FILE OVERVIEW", len(rule)))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "file:          %s\n", f.src.Path())
	fmt.Fprintf(&b, "LaPD version:  %s\n\n", f.version)

	fmt.Fprintln(&b, "MSI diagnostics")
	for _, name := range sortedKeys(f.fmap.MSI) {
		m := f.fmap.MSI[name]
		note := fmt.Sprintf("%d shots", m.NShots)
		fmt.Fprintln(&b, statusLine(1, name, "mapped", note))
	}
	if len(f.fmap.MSI) == 0 {
		fmt.Fprintln(&b, statusLine(1, "(none)", "", ""))
	}

	fmt.Fprintln(&b, "\nDigitizers")
	for _, name := range sortedKeys(f.fmap.Digitizers) {
		m := f.fmap.Digitizers[name]
		note := ""
		if name == f.fmap.MainDigitizer {
			note = "main digitizer"
		}
		fmt.Fprintln(&b, statusLine(1, name, "mapped", note))
		for _, cfgName := range m.ConfigNames {
			cfg := m.Configs[cfgName]
			status := "inactive"
			if cfg.Active {
				status = "active"
			}
			fmt.Fprintln(&b, statusLine(2, cfgName, status, "adc "+cfg.ADC))
			for _, conn := range cfg.Connections {
				item := fmt.Sprintf("board %d: channels %v", conn.Board, conn.Channels)
				note := ""
				if cfg.Active {
					note = fmt.Sprintf("nt=%s nshotnum=%s",
						countLabel(conn.Info.NT), countLabel(conn.Info.NShotNum))
				}
				fmt.Fprintln(&b, statusLine(3, item, "", note))
			}
		}
	}
	if len(f.fmap.Digitizers) == 0 {
		fmt.Fprintln(&b, statusLine(1, "(none)", "", ""))
	}

	fmt.Fprintln(&b, "\nControl devices")
	for _, name := range sortedKeys(f.fmap.Controls) {
		m := f.fmap.Controls[name]
		fmt.Fprintln(&b, statusLine(1, name, "mapped", string(m.Kind)+" control"))
		for _, cfgName := range m.ConfigNames {
			fmt.Fprintln(&b, statusLine(2, cfgName, "", configNote(m.Configs[cfgName])))
		}
	}
	if len(f.fmap.Controls) == 0 {
		fmt.Fprintln(&b, statusLine(1, "(none)", "", ""))
	}

	if len(f.fmap.Unknown) > 0 {
		fmt.Fprintln(&b, "\nUnmapped groups")
		for _, path := range f.fmap.Unknown {
			fmt.Fprintln(&b, statusLine(1, path, "not mapped", ""))
		}
	}

	if len(f.fmap.Diags) > 0 {
		fmt.Fprintln(&b, "\nMapping diagnostics")
		for _, d := range f.fmap.Diags {
			fmt.Fprintln(&b, statusLine(1, d.Unit, "", d.Reason))
		}
	}

	return b.String()
}

func centered(s string, width int) string {
	if pad := (width - len(s)) / 2; pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}

func countLabel(n int) string {
	if n < 0 {
		return "indeterminate"
	}
	return fmt.Sprintf("%d", n)
}

func configNote(cfg *hdfmap.ControlConfig) string {
	switch {
	case cfg.Waveform != nil:
		return fmt.Sprintf("%d commands, ip %s", len(cfg.Waveform.Commands), cfg.Waveform.IP)
	case cfg.Power != nil:
		return fmt.Sprintf("%d commands, %s", len(cfg.Power.Commands), cfg.Power.Device)
	case cfg.Motion != nil:
		return fmt.Sprintf("receptacle %d, probe %s", cfg.Motion.Receptacle, cfg.Motion.ProbeName)
	default:
		return ""
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
