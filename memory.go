package textsql

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

// Memory management constants
const (
	// Default capacity for pooled chunk buffers
	defaultByteSliceCapacity = 4096 // 4KB, one bufio.Writer flush

	defaultMemoryPoolSize    = 1024 * 1024 // 1MB
	defaultMemoryLimit       = 512         // 512MB
	maxReasonableMemoryLimit = 64 * 1024   // 64GB - reasonable upper bound for most systems

	// Memory warning threshold
	defaultWarningThreshold = 0.8 // 80%

	bytesPerMB = 1024 * 1024
)

// pooledByteSlice wraps []byte for pooling
type pooledByteSlice struct {
	data []byte
}

// MemoryPool recycles the chunk buffers a BoundedPipe hands from producer to
// consumer. Buffers that grew beyond maxSize are dropped instead of pooled.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type MemoryPool struct {
	bytePool sync.Pool
	maxSize  int // Maximum buffer size to pool
}

// NewMemoryPool creates a new memory pool with configurable max buffer size
func NewMemoryPool(maxSize int) *MemoryPool {
	if maxSize <= 0 {
		maxSize = defaultMemoryPoolSize
	}

	return &MemoryPool{
		maxSize: maxSize,
		bytePool: sync.Pool{
			New: func() any {
				return &pooledByteSlice{
					data: make([]byte, 0, defaultByteSliceCapacity),
				}
			},
		},
	}
}

// GetByteBuffer gets an empty byte buffer from the pool
func (mp *MemoryPool) GetByteBuffer() []byte {
	pooled, ok := mp.bytePool.Get().(*pooledByteSlice)
	if !ok {
		return make([]byte, 0, defaultByteSliceCapacity)
	}
	return pooled.data[:0] // Reset length but keep capacity
}

// PutByteBuffer returns a byte buffer to the pool if it's not too large
func (mp *MemoryPool) PutByteBuffer(buf []byte) {
	if cap(buf) <= mp.maxSize {
		mp.bytePool.Put(&pooledByteSlice{data: buf})
	}
}

// MemoryLimit rejects ingestion when the heap is already above a limit.
//
// Performance Note: CheckMemoryUsage() calls runtime.ReadMemStats which can
// pause for milliseconds. It is called once per ingest, not per row.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type MemoryLimit struct {
	maxMemoryMB      int64   // Maximum memory limit in MB
	warningThreshold float64 // Warning threshold as percentage (0.0-1.0)
}

// NewMemoryLimit creates a new memory limit configuration
func NewMemoryLimit(maxMemoryMB int64) *MemoryLimit {
	if maxMemoryMB <= 0 {
		maxMemoryMB = defaultMemoryLimit
	}
	if maxMemoryMB > maxReasonableMemoryLimit {
		maxMemoryMB = maxReasonableMemoryLimit
	}

	return &MemoryLimit{
		maxMemoryMB:      maxMemoryMB,
		warningThreshold: defaultWarningThreshold,
	}
}

// heapMB returns the current heap allocation in MB
func heapMB() int64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	heapAllocMB := memStats.HeapAlloc / bytesPerMB
	if heapAllocMB > uint64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(heapAllocMB)
}

// CheckMemoryUsage checks current memory usage against limits
func (ml *MemoryLimit) CheckMemoryUsage() MemoryStatus {
	currentMB := heapMB()
	if currentMB >= ml.maxMemoryMB {
		return MemoryStatusExceeded
	}
	if float64(currentMB)/float64(ml.maxMemoryMB) >= ml.warningThreshold {
		return MemoryStatusWarning
	}
	return MemoryStatusOK
}

// CreateMemoryError creates a memory limit error with helpful context
func (ml *MemoryLimit) CreateMemoryError(operation string) error {
	currentMB := heapMB()
	return fmt.Errorf(
		"%w during %s: using %d MB / %d MB (%.1f%%)",
		ErrMemoryLimit, operation, currentMB, ml.maxMemoryMB,
		float64(currentMB)/float64(ml.maxMemoryMB)*100,
	)
}

// MemoryStatus represents the current memory status
type MemoryStatus int

// Memory status constants
const (
	// MemoryStatusOK indicates memory usage is within acceptable limits
	MemoryStatusOK MemoryStatus = iota
	// MemoryStatusWarning indicates memory usage is approaching the limit
	MemoryStatusWarning
	// MemoryStatusExceeded indicates memory usage has exceeded the limit
	MemoryStatusExceeded
)

// String returns string representation of memory status
func (ms MemoryStatus) String() string {
	switch ms {
	case MemoryStatusOK:
		return "OK"
	case MemoryStatusWarning:
		return "WARNING"
	case MemoryStatusExceeded:
		return "EXCEEDED"
	default:
		return "UNKNOWN"
	}
}
