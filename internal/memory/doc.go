// Package memory configures the Go runtime memory limit and holds back
// thumbnail decoding when the heap runs close to it.
//
// # Configuration
//
// Call [ConfigureFromEnv] early in main, before the image pipeline starts:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ... rest of application
//	}
//
// # Environment Variables
//
// GOMEMLIMIT is the standard Go variable. If set, it takes precedence over
// all other configuration. It accepts values like "400MiB" or "1GiB".
//
// MEMORY_LIMIT is the container memory limit in bytes, typically set via the
// Kubernetes Downward API:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//
// MEMORY_RATIO is the share of MEMORY_LIMIT given to the Go heap, between
// 0.0 and 1.0, default [DefaultHeapRatio]. The rest of MEMORY_LIMIT belongs
// to libvips; a quarter of it sizes the libvips operation cache unless
// VIPS_CACHE_MEM sets that directly.
//
// GOMEMLIMIT is a soft limit. It only makes the garbage collector work
// harder; it does not bound cgo allocations.
//
// # Backpressure
//
// [Monitor] samples the heap and pauses callers of [Monitor.Wait] between
// the pause and resume water marks:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	if err := monitor.Wait(ctx); err != nil {
//	    return err
//	}
//	// decode the original
package memory
