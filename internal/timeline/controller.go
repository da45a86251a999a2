// Package timeline implements the year timeline controller: an ordered row
// of selectable years, a play/pause toggle that auto-advances through them
// on a repeating timer, a cycling speed control and a language label.
//
// The controller owns a single timer. Every operation that stops or changes
// playback cancels the pending timer before it returns, and a tick that was
// cancelled is never applied, even if its callback goroutine already runs.
//
// Handler calls are queued under the controller lock and delivered one at a
// time in the order the changes were committed. A year notification that a
// later selection overtook before delivery is dropped.
package timeline

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/facebookgo/clock"
)

// DefaultYears is the display sequence used when none is configured.
var DefaultYears = []string{
	"PRÉ 2013", "2013", "2016", "2017", "2018", "2019",
	"2020", "2021", "2022", "2023", "2024", "2025",
}

const (
	DefaultSelectedYear = "2025"
	DefaultSpeed        = SpeedHalf
	DefaultLanguage     = "POR"
)

// Options configures a Controller. Zero values take the package defaults.
type Options struct {
	Years          []string
	SelectedYear   string
	AvailableYears []string
	Speed          Speed
	Language       string

	Clock  clock.Clock
	Logger *slog.Logger
}

// Handlers are notified of controller changes. Any of them may be nil.
// They run after the change is committed, outside the controller lock, so a
// handler may call back into the controller. A change made from inside a
// handler is delivered after the running handler returns.
type Handlers struct {
	OnYearSelect     func(year string)
	OnPlay           func()
	OnSpeedChange    func(speed Speed)
	OnLanguageChange func(language string)
}

// Controller is the timeline state machine. It is safe for concurrent use.
type Controller struct {
	clock    clock.Clock
	logger   *slog.Logger
	handlers Handlers

	mu        sync.Mutex
	years     []string
	available []string
	external  string // last externally supplied selection
	selected  string
	playing   bool
	speed     Speed
	language  string
	timer     *clock.Timer
	epoch     uint64
	closed    bool

	pending  []func()
	flushing bool
	yearSeq  uint64 // bumped on every committed selection change
}

// New creates a paused controller.
func New(opts Options, handlers Handlers) *Controller {
	if len(opts.Years) == 0 {
		opts.Years = DefaultYears
	}
	if opts.SelectedYear == "" {
		opts.SelectedYear = DefaultSelectedYear
	}
	if opts.Speed == "" {
		opts.Speed = DefaultSpeed
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Controller{
		clock:     opts.Clock,
		logger:    opts.Logger,
		handlers:  handlers,
		years:     slices.Clone(opts.Years),
		available: slices.Clone(opts.AvailableYears),
		external:  opts.SelectedYear,
		selected:  opts.SelectedYear,
		speed:     opts.Speed,
		language:  opts.Language,
	}
}

// SelectYear makes year the current selection and stops playback.
// It reports false and changes nothing when year is not in the display
// sequence, or when an availability subset is configured and year is not
// part of it.
func (c *Controller) SelectYear(year string) bool {
	c.mu.Lock()
	if c.closed || !c.selectableLocked(year) {
		c.mu.Unlock()
		return false
	}
	if c.playing {
		c.playing = false
		c.cancelLocked()
		c.logger.Debug("playback stopped by selection", "year", year)
	}
	c.selected = year
	c.queueYearLocked(year)
	c.mu.Unlock()

	c.flush()
	return true
}

func (c *Controller) selectableLocked(year string) bool {
	if !slices.Contains(c.years, year) {
		return false
	}
	return len(c.available) == 0 || slices.Contains(c.available, year)
}

// TogglePlay starts or stops playback.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.playing = !c.playing
	if c.playing {
		c.scheduleLocked()
	} else {
		c.cancelLocked()
	}
	c.logger.Debug("playback toggled", "playing", c.playing, "speed", c.speed)
	if c.handlers.OnPlay != nil {
		c.pending = append(c.pending, c.handlers.OnPlay)
	}
	c.mu.Unlock()

	c.flush()
}

// CycleSpeed advances to the next speed. A running timer is replaced at the
// new interval right away.
func (c *Controller) CycleSpeed() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.speed = c.speed.Next()
	if c.playing {
		c.scheduleLocked()
	}
	speed := c.speed
	if fn := c.handlers.OnSpeedChange; fn != nil {
		c.pending = append(c.pending, func() { fn(speed) })
	}
	c.mu.Unlock()

	c.flush()
}

// ToggleLanguage reports the current language label to OnLanguageChange.
// Changing the label is up to the owner, through SetLanguage.
func (c *Controller) ToggleLanguage() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	language := c.language
	if fn := c.handlers.OnLanguageChange; fn != nil {
		c.pending = append(c.pending, func() { fn(language) })
	}
	c.mu.Unlock()

	c.flush()
}

// SetSelectedYear mirrors the externally owned selection. When year differs
// from the previously supplied value the current selection is overwritten.
// No handler fires and playback continues from the new selection.
func (c *Controller) SetSelectedYear(year string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || year == c.external {
		return
	}
	c.external = year
	c.selected = year
}

// SetYears replaces the display sequence. An empty sequence restores the
// defaults.
func (c *Controller) SetYears(years []string) {
	if len(years) == 0 {
		years = DefaultYears
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || slices.Equal(c.years, years) {
		return
	}
	c.years = slices.Clone(years)
	if c.playing {
		c.scheduleLocked()
	}
}

// SetAvailableYears replaces the availability subset. An empty subset lifts
// the restriction.
func (c *Controller) SetAvailableYears(years []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || slices.Equal(c.available, years) {
		return
	}
	c.available = slices.Clone(years)
	if c.playing {
		c.scheduleLocked()
	}
}

// SetLanguage replaces the language label.
func (c *Controller) SetLanguage(language string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.language = language
	}
}

// Close stops playback for good. Later calls are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.playing = false
	c.closed = true
}

// scheduleLocked replaces any pending timer with one at the current speed.
func (c *Controller) scheduleLocked() {
	c.cancelLocked()
	epoch := c.epoch
	c.timer = c.clock.AfterFunc(c.speed.Interval(), func() {
		c.tick(epoch)
	})
}

// cancelLocked stops the pending timer and invalidates its epoch.
func (c *Controller) cancelLocked() {
	c.epoch++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) tick(epoch uint64) {
	c.mu.Lock()
	if c.closed || !c.playing || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	next := c.nextLocked()
	c.selected = next
	c.timer = c.clock.AfterFunc(c.speed.Interval(), func() {
		c.tick(epoch)
	})
	c.queueYearLocked(next)
	c.mu.Unlock()

	c.flush()
}

// nextLocked returns the year following the current selection in the
// navigation sequence, wrapping to the first entry at the end. A selection
// outside the sequence also restarts at the first entry.
func (c *Controller) nextLocked() string {
	seq := c.years
	if len(c.available) > 0 {
		seq = c.available
	}
	i := slices.Index(seq, c.selected)
	if i == -1 || i == len(seq)-1 {
		return seq[0]
	}
	return seq[i+1]
}

// queueYearLocked queues an OnYearSelect call for year. The call is skipped
// at delivery time when another selection was committed in between or the
// controller was closed.
func (c *Controller) queueYearLocked(year string) {
	c.yearSeq++
	fn := c.handlers.OnYearSelect
	if fn == nil {
		return
	}
	seq := c.yearSeq
	c.pending = append(c.pending, func() {
		c.mu.Lock()
		stale := c.closed || seq != c.yearSeq
		c.mu.Unlock()
		if stale {
			c.logger.Debug("dropping superseded year notification", "year", year)
			return
		}
		fn(year)
	})
}

// flush delivers queued notifications in order. When another goroutine is
// already delivering, or flush is reached from inside a handler, the
// running delivery picks up the new entries.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true
	for len(c.pending) > 0 {
		fn := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}
	c.flushing = false
	c.mu.Unlock()
}
