package group

import "sync"

// Output is an append-only list of output lines with a read cursor.
// It is safe for concurrent use.
type Output struct {
	mu    sync.RWMutex
	lines []string
	next  int
}

func NewOutput() *Output {
	return &Output{}
}

// Add appends a line.
func (o *Output) Add(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.lines = append(o.lines, line)
}

func (o *Output) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.lines)
}

// Line returns the line at index i.
func (o *Output) Line(i int) string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.lines[i]
}

// Lines returns a copy of all lines.
func (o *Output) Lines() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	lines := make([]string, len(o.lines))
	copy(lines, o.lines)

	return lines
}

// HasNew reports whether there are lines after the cursor.
func (o *Output) HasNew() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.next < len(o.lines)
}

// NextLine returns the cursor position.
func (o *Output) NextLine() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.next
}

// Next returns the line at the cursor and advances it. The second return
// value is false if there is no unread line.
func (o *Output) Next() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.next >= len(o.lines) {
		return "", false
	}

	line := o.lines[o.next]
	o.next++

	return line, true
}

// ReadNew returns all unread lines and advances the cursor past them.
func (o *Output) ReadNew() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	lines := make([]string, len(o.lines)-o.next)
	copy(lines, o.lines[o.next:])
	o.next = len(o.lines)

	return lines
}

// Rewind moves the cursor back by n lines, or to the start if n <= 0.
func (o *Output) Rewind(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if n <= 0 {
		o.next = 0
		return
	}

	o.next = max(0, o.next-n)
}

// Clear removes all lines and resets the cursor.
func (o *Output) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.lines = nil
	o.next = 0
}
