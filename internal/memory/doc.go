// Package memory configures GOMEMLIMIT for containerized deployments and
// provides backpressure for background rendition work.
//
// [Configure] derives GOMEMLIMIT from the container limit (MEMORY_LIMIT)
// and a heap ratio (MEMORY_RATIO). RAW development in libvips, ffmpeg
// children and mapped source files live outside the Go heap, so the ratio
// should leave room for them. An explicit GOMEMLIMIT always wins.
//
// [Monitor] samples heap usage and pauses bulk prefetch once usage crosses
// a critical threshold, resuming when it falls back below a lower one:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	if !monitor.WaitIfPaused(ctx) {
//	    return
//	}
package memory
