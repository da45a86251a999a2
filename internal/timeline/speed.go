package timeline

import (
	"fmt"
	"slices"
	"time"
)

// Speed is a playback speed label shown on the speed control.
type Speed string

const (
	SpeedHalf   Speed = "0.5x"
	SpeedNormal Speed = "1.0x"
	SpeedFast   Speed = "1.5x"
	SpeedDouble Speed = "2.0x"
)

// fallbackInterval is used for a speed label outside the known set.
const fallbackInterval = 2000 * time.Millisecond

// speeds is the cyclic order of the speed control.
var speeds = []Speed{SpeedHalf, SpeedNormal, SpeedFast, SpeedDouble}

var intervals = map[Speed]time.Duration{
	SpeedHalf:   4000 * time.Millisecond,
	SpeedNormal: 2000 * time.Millisecond,
	SpeedFast:   1333 * time.Millisecond,
	SpeedDouble: 1000 * time.Millisecond,
}

// Speeds returns the speeds in cycling order.
func Speeds() []Speed {
	return slices.Clone(speeds)
}

// ParseSpeed validates a speed label.
func ParseSpeed(s string) (Speed, error) {
	sp := Speed(s)
	if !sp.Valid() {
		return "", fmt.Errorf("unknown speed %q (want one of %v)", s, speeds)
	}
	return sp, nil
}

// Valid reports whether s is one of the known speeds.
func (s Speed) Valid() bool {
	_, ok := intervals[s]
	return ok
}

// Interval returns the time between two auto-advance ticks.
func (s Speed) Interval() time.Duration {
	if d, ok := intervals[s]; ok {
		return d
	}
	return fallbackInterval
}

// Next returns the following speed in cycling order. An unknown label
// restarts the cycle at the slowest speed.
func (s Speed) Next() Speed {
	i := slices.Index(speeds, s)
	return speeds[(i+1)%len(speeds)]
}

func (s Speed) String() string {
	return string(s)
}
