package control

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mtest/internal/mapi"
)

// State is the daemon's view of a database's condition.
type State int

const (
	StateIllegal State = iota
	StateRunning
	StateCrashed
	StateInactive
	StateStarting
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCrashed:
		return "crashed"
	case StateInactive:
		return "inactive"
	case StateStarting:
		return "starting"
	default:
		return "illegal"
	}
}

// Status describes one database as the daemon reports it on a sabdb
// status line.
type Status struct {
	Name         string
	Path         string
	Locked       bool
	State        State
	Scenarios    []string
	StartCounter int
	StopCounter  int
	CrashCounter int
	AvgUptime    time.Duration
	MaxUptime    time.Duration
	MinUptime    time.Duration
	LastCrash    *time.Time
	LastStart    *time.Time
	LastStop     *time.Time
	CrashAvg1    bool
	CrashAvg10   float64
	CrashAvg30   float64
}

// fields walks the comma separated tail of a status line, remembering
// the first failure.
type fields struct {
	parts []string
	pos   int
	err   error
}

func (f *fields) next() string {
	if f.err != nil {
		return ""
	}
	if f.pos >= len(f.parts) {
		f.err = fmt.Errorf("%w: truncated status line", mapi.ErrOperational)
		return ""
	}
	value := f.parts[f.pos]
	f.pos++
	return value
}

func (f *fields) skip() {
	f.next()
}

func (f *fields) nextBool() bool {
	return f.next() == "1"
}

func (f *fields) nextInt() int {
	value := f.next()
	if f.err != nil {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		f.err = fmt.Errorf("%w: bad number %q in status line", mapi.ErrOperational, value)
		return 0
	}
	return n
}

func (f *fields) nextFloat() float64 {
	value := f.next()
	if f.err != nil {
		return 0
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		f.err = fmt.Errorf("%w: bad number %q in status line", mapi.ErrOperational, value)
		return 0
	}
	return n
}

func (f *fields) nextSeconds() time.Duration {
	return time.Duration(f.nextInt()) * time.Second
}

// nextTime reads a unix timestamp; negative values mean never.
func (f *fields) nextTime() *time.Time {
	n := f.nextInt()
	if f.err != nil || n < 0 {
		return nil
	}
	t := time.Unix(int64(n), 0)
	return &t
}

// ParseStatusLine parses a sabdb format status line. Versions 1 and 2
// are supported.
func ParseStatusLine(line string) (Status, error) {
	line = strings.TrimPrefix(line, "=")
	if !strings.HasPrefix(line, "sabdb:") {
		return Status{}, fmt.Errorf("%w: wrong result received", mapi.ErrOperational)
	}

	parts := strings.SplitN(line, ":", 3)
	if len(parts) < 3 {
		return Status{}, fmt.Errorf("%w: wrong result received", mapi.ErrOperational)
	}
	version := parts[1]
	if version != "1" && version != "2" {
		return Status{}, fmt.Errorf("%w: unsupported sabdb protocol", mapi.ErrInterface)
	}

	f := &fields{parts: strings.Split(parts[2], ",")}

	var st Status
	st.Name = f.next()
	st.Path = f.next()
	st.Locked = f.nextBool()
	st.State = State(f.nextInt())
	st.Scenarios = strings.Split(f.next(), "'")
	if version == "1" {
		f.skip()
	}
	st.StartCounter = f.nextInt()
	st.StopCounter = f.nextInt()
	st.CrashCounter = f.nextInt()
	st.AvgUptime = f.nextSeconds()
	st.MaxUptime = f.nextSeconds()
	st.MinUptime = f.nextSeconds()
	st.LastCrash = f.nextTime()
	st.LastStart = f.nextTime()
	if version == "2" {
		st.LastStop = f.nextTime()
	}
	st.CrashAvg1 = f.nextBool()
	st.CrashAvg10 = f.nextFloat()
	st.CrashAvg30 = f.nextFloat()

	if f.err != nil {
		return Status{}, f.err
	}
	return st, nil
}
