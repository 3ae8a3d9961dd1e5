package breaker

// outcomeWindow fixed-size ring buffer of the most recent call outcomes
// Not thread-safe; the owning breaker serializes access
type outcomeWindow struct {
	outcomes []bool // true = failure
	next     int
	count    int
	failures int
}

// newOutcomeWindow creates a window holding the last size outcomes
func newOutcomeWindow(size int) *outcomeWindow {
	return &outcomeWindow{outcomes: make([]bool, size)}
}

// record stores one outcome, evicting the oldest when the window is full
func (w *outcomeWindow) record(failure bool) {
	if w.count == len(w.outcomes) {
		if w.outcomes[w.next] {
			w.failures--
		}
	} else {
		w.count++
	}

	w.outcomes[w.next] = failure
	if failure {
		w.failures++
	}
	w.next = (w.next + 1) % len(w.outcomes)
}

// recorded returns the number of outcomes currently in the window
func (w *outcomeWindow) recorded() int {
	return w.count
}

// failureRate returns failures as a percentage of recorded outcomes
func (w *outcomeWindow) failureRate() float64 {
	if w.count == 0 {
		return 0
	}
	return float64(w.failures) / float64(w.count) * 100
}

// reset clears the window
func (w *outcomeWindow) reset() {
	for i := range w.outcomes {
		w.outcomes[i] = false
	}
	w.next = 0
	w.count = 0
	w.failures = 0
}
