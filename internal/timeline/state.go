package timeline

import "slices"

// ButtonStatus is how a year button is drawn.
type ButtonStatus string

const (
	StatusSelected ButtonStatus = "selected"
	StatusDisabled ButtonStatus = "disabled"
	StatusInactive ButtonStatus = "inactive"
)

// Button is one entry of the rendered year row.
type Button struct {
	Year   string       `json:"year" doc:"Year label"`
	Status ButtonStatus `json:"status" enum:"selected,disabled,inactive" doc:"Rendering status"`
}

// Enabled reports whether clicking the button can change the selection.
func (b Button) Enabled() bool {
	return b.Status != StatusDisabled
}

// State is a point-in-time copy of the controller.
type State struct {
	Years          []string `json:"years" doc:"Display sequence"`
	AvailableYears []string `json:"availableYears" doc:"Availability subset, empty when unrestricted"`
	Selected       string   `json:"selected" doc:"Current selection" example:"2025"`
	Playing        bool     `json:"playing" doc:"Whether auto-advance is running"`
	Speed          Speed    `json:"speed" enum:"0.5x,1.0x,1.5x,2.0x" doc:"Playback speed"`
	IntervalMS     int64    `json:"intervalMs" doc:"Auto-advance interval in milliseconds" example:"4000"`
	Language       string   `json:"language" doc:"Language label" example:"POR"`
	Buttons        []Button `json:"buttons" doc:"Year buttons in display order"`
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Years:          slices.Clone(c.years),
		AvailableYears: slices.Clone(c.available),
		Selected:       c.selected,
		Playing:        c.playing,
		Speed:          c.speed,
		IntervalMS:     c.speed.Interval().Milliseconds(),
		Language:       c.language,
		Buttons:        make([]Button, 0, len(c.years)),
	}
	if st.AvailableYears == nil {
		st.AvailableYears = []string{}
	}
	for _, y := range c.years {
		st.Buttons = append(st.Buttons, Button{Year: y, Status: c.statusLocked(y)})
	}
	return st
}

// Selected returns the current selection.
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Playing reports whether auto-advance is running.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Speed returns the current playback speed.
func (c *Controller) Speed() Speed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

func (c *Controller) statusLocked(year string) ButtonStatus {
	switch {
	case year == c.selected:
		return StatusSelected
	case len(c.available) > 0 && !slices.Contains(c.available, year):
		return StatusDisabled
	default:
		return StatusInactive
	}
}
