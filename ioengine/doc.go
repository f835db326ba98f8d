// Package ioengine implements the optimized block-I/O engine: an aligned
// direct-I/O handle, a pooled-buffer allocator, per-operation
// latency/throughput metrics, and a thermal governor that throttles
// sequential writes against a temperature threshold.
package ioengine
