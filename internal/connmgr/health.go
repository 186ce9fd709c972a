package connmgr

import "runtime"

// runtimeMemStats is the subset of runtime.MemStats the /health endpoint
// reports.
type runtimeMemStats struct {
	heapAlloc uint64
}

func readMemStats(out *runtimeMemStats) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	out.heapAlloc = m.HeapAlloc
}
