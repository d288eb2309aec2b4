package queue

import "sync"

// Statistics is the process-wide queue accounting shared between producers
// and the worker. All mutators are atomic with respect to each other; reads
// go through Snapshot. Invariant:
//
//	QueueSize == TotalQueued - TotalProcessed - TotalFailed
//
// whenever observed under the lock.
type Statistics struct {
	mu sync.RWMutex

	totalQueued    uint64
	totalProcessed uint64
	totalFailed    uint64
	queueSize      uint64
	processingID   string
}

// Snapshot is a consistent point-in-time copy of all statistics fields.
type Snapshot struct {
	TotalQueued    uint64 `json:"total_queued"`
	TotalProcessed uint64 `json:"total_processed"`
	TotalFailed    uint64 `json:"total_failed"`
	QueueSize      uint64 `json:"current_queue_size"`
	ProcessingID   string `json:"processing_job_id,omitempty"`
}

// NewStatistics returns zeroed statistics.
func NewStatistics() *Statistics {
	return &Statistics{}
}

// IncrementQueued records a job accepted into the queue and returns the queue
// size after the increment, used as the submitter-visible position.
func (s *Statistics) IncrementQueued() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalQueued++
	s.queueSize++
	return s.queueSize
}

// RollbackQueued compensates for a job that was counted as queued but will
// never reach the worker (the queue closed between accept and send). It
// undoes the full IncrementQueued so the size invariant keeps holding.
func (s *Statistics) RollbackQueued() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.totalQueued > 0 {
		s.totalQueued--
	}
	if s.queueSize > 0 {
		s.queueSize--
	}
}

// SetProcessing marks the job the worker is currently handling.
func (s *Statistics) SetProcessing(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processingID = jobID
}

// IncrementProcessed records a successfully delivered job and clears the
// in-flight marker. The size decrement saturates at zero.
func (s *Statistics) IncrementProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalProcessed++
	if s.queueSize > 0 {
		s.queueSize--
	}
	s.processingID = ""
}

// IncrementFailed records a failed job and clears the in-flight marker. The
// size decrement saturates at zero.
func (s *Statistics) IncrementFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalFailed++
	if s.queueSize > 0 {
		s.queueSize--
	}
	s.processingID = ""
}

// Snapshot returns a consistent copy of all fields. Concurrent readers do not
// block each other.
func (s *Statistics) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		TotalQueued:    s.totalQueued,
		TotalProcessed: s.totalProcessed,
		TotalFailed:    s.totalFailed,
		QueueSize:      s.queueSize,
		ProcessingID:   s.processingID,
	}
}
