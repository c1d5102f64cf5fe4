package profile

// Profiler selects a runtime profile to collect for the lifetime of a
// command. The zero value collects nothing.
type Profiler struct {
	Mode  string // one of [Modes]; empty disables profiling
	Path  string // output directory; empty uses a temporary directory
	Quiet bool   // suppress the profiler's own log lines
}

// Stopper ends a profile started by [Profiler.Start].
type Stopper interface{ Stop() }

// Start begins collecting the configured profile.
//
// If the binary was built without the pprof tag, or Mode is empty or
// unknown, the returned Stopper does nothing. Stop is always safe to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

// Enabled reports whether p names a mode supported by this binary.
func (p Profiler) Enabled() bool {
	for _, m := range Modes() {
		if m == p.Mode {
			return true
		}
	}

	return false
}

type ignore struct{}

func (ignore) Stop() {}
