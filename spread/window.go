package spread

// Window is a fixed-capacity ring of the most recent values.
type Window struct {
	buf  []float64
	head int // index of the oldest value
	size int
}

// NewWindow returns an empty ring holding at most capacity values.
func NewWindow(capacity int) *Window {
	return &Window{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value when full.
func (w *Window) Push(v float64) {
	if len(w.buf) == 0 {
		return
	}
	if w.size < len(w.buf) {
		w.buf[(w.head+w.size)%len(w.buf)] = v
		w.size++
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

func (w *Window) Len() int { return w.size }

func (w *Window) Full() bool { return w.size == len(w.buf) && w.size > 0 }

// Last returns the newest value.
func (w *Window) Last() (float64, bool) {
	if w.size == 0 {
		return 0, false
	}
	return w.buf[(w.head+w.size-1)%len(w.buf)], true
}

// Values returns a copy of the ring, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, w.size)
	for i := range out {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

func (w *Window) Reset() {
	w.head = 0
	w.size = 0
}
