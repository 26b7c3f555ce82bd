/*
Package workers sizes and runs the worker pools used for image probing and
thumbnail generation.

# Sizing

Worker counts are derived from GOMAXPROCS, which Go sets from the container
CPU limit, rather than runtime.NumCPU, which reports host CPUs:

	numWorkers := workers.ForIO(16)  // probes: mostly waiting on disk/network
	numWorkers := workers.ForCPU(8)  // thumbnail resizing

The PROBE_WORKERS environment variable overrides the computed count (still
capped by the limit).

# Pools

[Pool] runs [Job] functions on a fixed set of goroutines fed from a buffered
channel. Jobs receive the pool context, which is cancelled by [Pool.Close]:

	pool := workers.NewPool("probe", workers.ForIO(16), 256)
	defer pool.Close()

	pool.Submit(ctx, func(ctx context.Context) {
		// probe one image
	})
*/
package workers
