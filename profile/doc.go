// Package profile provides optional runtime profiling for the tpt command.
//
// Profiling is compiled in only when the binary is built with the "pprof"
// build tag; otherwise [Modes] is empty and [Profiler.Start] is a no-op.
//
//	go build -tags pprof .
//	./tpt --pprof-mode cpu --pprof-dir ./profiles render page.tpt
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// A [Profiler] can also be used directly:
//
//	p := profile.Profiler{Mode: "heap", Path: "/tmp/profiles"}
//	defer p.Start().Stop()
//
// Profile files are named after the mode (cpu.pprof, mem.pprof, ...).
// With the tag set, the package also imports [net/http/pprof], which
// registers handlers under /debug/pprof/ on [net/http.DefaultServeMux].
//
// The supported modes are allocs, block, clock, cpu, goroutine, heap, mem,
// mutex, thread and trace. Block and mutex profiling can add significant
// overhead; trace is meant for short runs.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
