// Package workers provides utilities for determining worker pool sizes in
// containerized environments.
//
// Go 1.19+ sets GOMAXPROCS from the container CPU limit, while
// runtime.NumCPU() still reports the host machine's CPU count. The helpers
// here size pools from GOMAXPROCS so that the image resize pool does not
// oversubscribe a CPU-limited container.
//
// All functions respect the IMAGE_WORKERS environment variable as a manual
// override:
//
//	numWorkers := workers.ForCPU(8) // CPU-bound, max 8
//	numWorkers := workers.ForIO(16) // I/O-bound, max 16
package workers
