package track

import "time"

const (
	// ChromeHideScrollPx is the net downward scroll that arms the
	// auto-hide timer.
	ChromeHideScrollPx = 100
	// ChromeHideDelay is how long after the arming scroll the chrome
	// actually disappears.
	ChromeHideDelay = 150 * time.Millisecond
	// ChromeForceShowFor keeps the chrome up after the pointer enters
	// the top zone.
	ChromeForceShowFor = 3 * time.Second
	// TopZoneFrac is the fraction of viewport rows counting as the
	// top hot zone for pointer reveal.
	TopZoneFrac = 0.10
)

// Chrome is the auto-hide state machine for the header and navigation
// overlay in continuous mode. Any upward scroll re-shows instantly;
// downward scroll hides after a short delay so a single wheel notch
// does not flicker the header.
type Chrome struct {
	visible    bool
	hideAt     time.Time
	forceUntil time.Time
	anchorTop  int
	haveAnchor bool
}

// NewChrome starts visible.
func NewChrome() *Chrome {
	return &Chrome{visible: true}
}

// OnScroll feeds one scroll position change.
func (c *Chrome) OnScroll(now time.Time, scrollTop int) {
	if !c.haveAnchor {
		c.anchorTop = scrollTop
		c.haveAnchor = true
		return
	}

	if scrollTop < c.anchorTop {
		// Scrolling up: instant reveal, cancel any pending hide.
		c.visible = true
		c.hideAt = time.Time{}
		c.anchorTop = scrollTop
		return
	}

	if scrollTop-c.anchorTop >= ChromeHideScrollPx {
		if c.visible && c.hideAt.IsZero() && now.After(c.forceUntil) {
			c.hideAt = now.Add(ChromeHideDelay)
		}
		c.anchorTop = scrollTop
	}
}

// OnPointerTop reveals the chrome and pins it for a few seconds; the
// caller decides whether the pointer row falls inside TopZoneFrac.
func (c *Chrome) OnPointerTop(now time.Time) {
	c.visible = true
	c.hideAt = time.Time{}
	c.forceUntil = now.Add(ChromeForceShowFor)
}

// Toggle flips visibility immediately, bypassing timers.
func (c *Chrome) Toggle() {
	c.visible = !c.visible
	c.hideAt = time.Time{}
}

// Show reveals the chrome immediately.
func (c *Chrome) Show() {
	c.visible = true
	c.hideAt = time.Time{}
}

// Visible reports the current state, applying any pending hide whose
// deadline has passed.
func (c *Chrome) Visible(now time.Time) bool {
	if !c.hideAt.IsZero() && !now.Before(c.hideAt) && now.After(c.forceUntil) {
		c.visible = false
		c.hideAt = time.Time{}
	}
	return c.visible
}
