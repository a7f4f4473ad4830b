package lapd

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNullShotNum reports a shot-number specifier that selects nothing.
var ErrNullShotNum = errors.New("no valid shot numbers selected")

// ShotSpec selects shot numbers for a read. Exactly one of the concrete
// types is supplied: Shot, Shots, or ShotRange. A nil ShotSpec selects every
// recorded shot.
type ShotSpec interface {
	isShotSpec()
}

// Shot selects a single shot number.
type Shot uint32

func (Shot) isShotSpec() {}

// Shots selects an explicit list of shot numbers. Non-positive entries are
// dropped, duplicates collapsed, and the result sorted.
type Shots []int

func (Shots) isShotSpec() {}

// ShotRange selects [Start, Stop) with the given stride. Zero values take
// defaults: Start 1, Stop one past the highest recorded shot number, Step 1.
// Negative Start or Stop count back from the resolved Stop. A negative Step
// walks the range downward (defaults then flip to the highest recorded shot
// and 0); the selection is still returned in ascending order.
type ShotRange struct {
	Start int
	Stop  int
	Step  int
}

func (ShotRange) isShotSpec() {}

// conditionShotnum normalizes a shot-number specifier into a sorted,
// deduplicated array of positive shot numbers. lastShots holds the last
// recorded shot number of each contributing dataset; open-ended ranges
// resolve against their maximum.
func conditionShotnum(spec ShotSpec, lastShots []uint32) ([]uint32, error) {
	switch s := spec.(type) {
	case Shot:
		if s == 0 {
			return nil, fmt.Errorf("shot number must be positive: %w", ErrNullShotNum)
		}
		return []uint32{uint32(s)}, nil
	case Shots:
		return conditionShotList(s)
	case ShotRange:
		return conditionShotRange(s, lastShots)
	default:
		return nil, fmt.Errorf("unsupported shot-number specifier %T", spec)
	}
}

// intersectRecorded keeps the shot numbers present in the recording,
// preserving the input's order.
func intersectRecorded[V any](shotnum []uint32, recorded map[uint32]V) []uint32 {
	out := make([]uint32, 0, len(shotnum))
	for _, sn := range shotnum {
		if _, ok := recorded[sn]; ok {
			out = append(out, sn)
		}
	}
	return out
}

func conditionShotList(list Shots) ([]uint32, error) {
	seen := make(map[uint32]bool, len(list))
	out := make([]uint32, 0, len(list))
	for _, n := range list {
		if n <= 0 || n > math.MaxUint32 {
			continue
		}
		sn := uint32(n)
		if seen[sn] {
			continue
		}
		seen[sn] = true
		out = append(out, sn)
	}
	if len(out) == 0 {
		return nil, ErrNullShotNum
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func conditionShotRange(r ShotRange, lastShots []uint32) ([]uint32, error) {
	step := r.Step
	if step == 0 {
		step = 1
	}

	// The open stop resolves to one past the highest recorded shot, but an
	// explicit stop beyond the recording wins.
	resolved := 0
	for _, last := range lastShots {
		if int(last)+1 > resolved {
			resolved = int(last) + 1
		}
	}
	stop := r.Stop
	switch {
	case stop == 0 && step > 0:
		stop = resolved
	case stop < 0:
		stop = resolved + stop
	case stop > resolved:
		resolved = stop
	}

	start := r.Start
	switch {
	case start == 0 && step > 0:
		start = 1
	case start == 0 && step < 0:
		start = resolved - 1
	case start < 0:
		start = resolved + start
	}

	var out []uint32
	if step > 0 {
		for n := start; n < stop; n += step {
			if n > 0 {
				out = append(out, uint32(n))
			}
		}
	} else {
		for n := start; n > stop; n += step {
			if n > 0 {
				out = append(out, uint32(n))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	}
	if len(out) == 0 {
		return nil, ErrNullShotNum
	}
	return out, nil
}
