// Package gpio wraps the Linux GPIO character device behind two small
// interfaces so the engine can run against fakes in tests and against
// real lines on the Pi.
package gpio

import (
	"fmt"
	"sync"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// Input is a readable line, a button in this system.
type Input interface {
	Read() (int, error)
	Close() error
}

// Output is a writable line, a status LED in this system.
type Output interface {
	Set(value int) error
	Close() error
}

// Chip owns the character device and every line requested through it.
// Lines are acquired at startup and released by Close at shutdown; the
// chip is the only path to the hardware for the whole process.
type Chip struct {
	mu      sync.Mutex
	chip    *gpiod.Chip
	lines   []*gpiod.Line
	claimed map[int]bool
}

func OpenChip(name string) (*Chip, error) {
	c, err := gpiod.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open chip %s: %w", name, err)
	}
	return &Chip{chip: c, claimed: make(map[int]bool)}, nil
}

// RequestButton claims pin as a pull-up input. Buttons are wired
// active-low: idle reads 1, pressed reads 0.
func (c *Chip) RequestButton(pin int) (Input, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.claim(pin); err != nil {
		return nil, err
	}

	line, err := c.chip.RequestLine(pin, gpiod.AsInput, gpiod.WithPullUp)
	if err != nil {
		delete(c.claimed, pin)
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	c.lines = append(c.lines, line)
	return &inputLine{line: line}, nil
}

// RequestLed claims pin as an output driven to initial.
func (c *Chip) RequestLed(pin int, initial int) (Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.claim(pin); err != nil {
		return nil, err
	}

	line, err := c.chip.RequestLine(pin, gpiod.AsOutput(initial))
	if err != nil {
		delete(c.claimed, pin)
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	c.lines = append(c.lines, line)
	return &outputLine{line: line}, nil
}

func (c *Chip) claim(pin int) error {
	if c.chip == nil {
		return fmt.Errorf("chip not opened")
	}
	if c.claimed[pin] {
		return fmt.Errorf("pin %d already claimed", pin)
	}
	c.claimed[pin] = true
	return nil
}

// Close releases every requested line and the chip itself.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, line := range c.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	c.lines = nil
	c.claimed = make(map[int]bool)

	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

type inputLine struct {
	line *gpiod.Line
}

func (l *inputLine) Read() (int, error) {
	return l.line.Value()
}

func (l *inputLine) Close() error {
	return l.line.Close()
}

type outputLine struct {
	line *gpiod.Line
}

func (l *outputLine) Set(value int) error {
	return l.line.SetValue(value)
}

func (l *outputLine) Close() error {
	return l.line.Close()
}
