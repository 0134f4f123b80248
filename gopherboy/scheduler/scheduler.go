// Package scheduler interleaves the CPU and the PPU-side peripherals by a
// pair of relative cycle counters, grounded directly on the original
// engine's Scheduler: two Clocks track elapsed cycles in lockstep, and
// run_for repeatedly steps whichever side has fallen behind until the
// target is reached, then folds the smaller clock away so only the
// residual imbalance survives into the next call.
package scheduler

// clock tracks elapsed cycles in two units at once: t (raw cycles) and m
// (t/4, mirroring the original's "machine cycle" count). Advancing either
// unit recomputes the other, exactly as the C++ Clock did.
type clock struct {
	t uint64
	m uint64
}

func (c *clock) reset() {
	c.t = 0
	c.m = 0
}

func (c *clock) addT(cycles uint64) {
	c.t += cycles
	c.m = c.t / 4
}

func (c *clock) addM(cycles uint64) {
	c.m += cycles
	c.t = c.m * 4
}

// Scheduler drives a CPU step closure and a PPU step closure so that they
// stay within one step of each other in elapsed cycles. It owns no
// components directly; it only knows how to ask each side to advance by
// one step and how much that step cost.
type Scheduler struct {
	cpuClock clock
	ppuClock clock

	// cpuStep executes one CPU instruction (or interrupt dispatch, or one
	// halted/stopped idle slot) and returns the cycles it consumed.
	cpuStep func() int
	// ppuStep advances every PPU-side peripheral (PPU, Timer, APU, serial,
	// DMA) by exactly one machine cycle.
	ppuStep func()
}

// New builds a Scheduler around the given step closures. Neither clock is
// ticked until RunFor is called.
func New(cpuStep func() int, ppuStep func()) *Scheduler {
	return &Scheduler{cpuStep: cpuStep, ppuStep: ppuStep}
}

// Reset zeroes both clocks, discarding any residual imbalance.
func (s *Scheduler) Reset() {
	s.cpuClock.reset()
	s.ppuClock.reset()
}

// RunFor advances the CPU clock by at least cycles cycles, interleaving
// PPU-side steps to keep the two clocks within one step of each other.
// Ties go to the CPU. Panic-free and error-free by construction: any
// fatal condition a step detects is recorded by the component itself and
// surfaced later through its own Fault method, never through RunFor.
func (s *Scheduler) RunFor(cycles uint64) {
	target := s.cpuClock.t + cycles
	for s.cpuClock.t < target {
		if s.cpuClock.t <= s.ppuClock.t {
			s.cpuClock.addT(uint64(s.cpuStep()))
		} else {
			s.ppuClock.addM(1)
			s.ppuStep()
		}
	}
	s.resetClocks()
}

// resetClocks zeroes whichever clock is behind and folds its counterpart
// down to just the residual difference, so neither clock grows without
// bound across repeated RunFor calls.
func (s *Scheduler) resetClocks() {
	if s.cpuClock.t <= s.ppuClock.t {
		diff := s.ppuClock.t - s.cpuClock.t
		s.cpuClock.reset()
		s.ppuClock.reset()
		s.ppuClock.addT(diff)
	} else {
		diff := s.cpuClock.t - s.ppuClock.t
		s.ppuClock.reset()
		s.cpuClock.reset()
		s.cpuClock.addT(diff)
	}
}
