package services

import (
	"context"

	"github.com/trustportal/trust-api/internal/jobs"
)

// Names of the background jobs scheduled at startup
const (
	JobFullVerify = "audit-full-verify"
	JobArchive    = "audit-archive"
)

type workerStats interface {
	GetStats() jobs.WorkerStats
	EnqueueAsync(name string, job jobs.Job)
}

type fullVerifier interface {
	FullVerify(ctx context.Context) (IntegrityStatus, error)
}

type JobService struct {
	worker    workerStats
	integrity fullVerifier
}

func NewJobService(worker workerStats, integrity fullVerifier) *JobService {
	return &JobService{
		worker:    worker,
		integrity: integrity,
	}
}

// Status reports the worker pool counters
func (s *JobService) Status() jobs.WorkerStats {
	return s.worker.GetStats()
}

// TriggerFullVerify queues an out-of-schedule full replay of the chain
func (s *JobService) TriggerFullVerify() {
	s.worker.EnqueueAsync(JobFullVerify, func(ctx context.Context) error {
		_, err := s.integrity.FullVerify(ctx)
		return err
	})
}
