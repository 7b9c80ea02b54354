/*
Package workers sizes and runs the background conversion pool.

# Sizing

Count and ForCPU derive a worker count from GOMAXPROCS, which Go sets from
the container CPU limit, rather than runtime.NumCPU, which reports the host.
Audio re-encodes are CPU-bound, so the default pool size is:

	size := workers.ForCPU(4) // at most 4 concurrent encodes

CONVERT_WORKERS replaces the default; see the startup package.

# Pool

Pool bounds how many tasks run at once without ever blocking the caller.
Go hands each task to its own goroutine, which waits for a free slot, so an
HTTP handler that fans a directory out into hundreds of jobs returns as soon
as every task is scheduled:

	pool := workers.NewPool(size)
	if err := pool.Go(func(ctx context.Context) { convert(ctx, path) }); err != nil {
	    // pool is shut down
	}

A panicking task is recovered and logged; it never takes down other tasks or
the process. Shutdown stops intake, waits for running tasks, and cancels their
context once its own deadline passes.
*/
package workers
