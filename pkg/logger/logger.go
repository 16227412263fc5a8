// Package logger is the central, tagged log used by the interpreter and the
// frontends. Entries are kept in a bounded ring; an identical entry logged
// twice in a row is folded into a repeat count rather than stored again.
//
// Nothing is printed unless SetEcho has been given a writer.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// MaxEntries is the capacity of the central log.
const MaxEntries = 256

type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Repeated  int
}

func (e Entry) String() string {
	s := strings.Builder{}
	fmt.Fprintf(&s, "%s: %s", e.Tag, e.Detail)
	if e.Repeated > 0 {
		fmt.Fprintf(&s, " (repeat x%d)", e.Repeated+1)
	}
	s.WriteString("\n")
	return s.String()
}

type log struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry
	echo       io.Writer
}

func newLog(maxEntries int) *log {
	return &log{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
	}
}

func (l *log) add(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", " ")

	l.mu.Lock()
	defer l.mu.Unlock()

	var e *Entry
	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		e = &l.entries[n-1]
		e.Repeated++
		e.Timestamp = time.Now()
	} else {
		l.entries = append(l.entries, Entry{Timestamp: time.Now(), Tag: tag, Detail: detail})
		if len(l.entries) > l.maxEntries {
			l.entries = append(l.entries[:0], l.entries[len(l.entries)-l.maxEntries:]...)
		}
		e = &l.entries[len(l.entries)-1]
	}

	if l.echo != nil {
		io.WriteString(l.echo, e.String())
	}
}

func (l *log) write(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		io.WriteString(w, e.String())
	}
}

func (l *log) tail(w io.Writer, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	if n <= 0 {
		return
	}
	for _, e := range l.entries[len(l.entries)-n:] {
		io.WriteString(w, e.String())
	}
}

var central = newLog(MaxEntries)

// Log adds an entry to the central log if perm allows it.
func Log(perm Permission, tag, detail string) {
	if perm == Allow || perm.AllowLogging() {
		central.add(tag, detail)
	}
}

// Logf is Log with a format string.
func Logf(perm Permission, tag, format string, args ...any) {
	if perm == Allow || perm.AllowLogging() {
		central.add(tag, fmt.Sprintf(format, args...))
	}
}

// Clear empties the central log.
func Clear() {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.entries = central.entries[:0]
}

// Write copies every entry to w.
func Write(w io.Writer) {
	central.write(w)
}

// Tail copies the last n entries to w. Asking for more entries than exist is
// not an error.
func Tail(w io.Writer, n int) {
	central.tail(w, n)
}

// SetEcho prints every new entry to w as it is logged. A nil writer stops
// echoing.
func SetEcho(w io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.echo = w
}
