package cron

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Job is one unit of periodic maintenance.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type scheduled struct {
	job     Job
	every   time.Duration
	lastRun time.Time
}

// Registry holds jobs in registration order with their minimum spacing.
// Spacing is tracked in memory, so a restarted worker runs every job on its
// first cycle.
type Registry struct {
	entries []*scheduled
}

// NewRegistry registers jobs that run on every cycle.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register adds a job that runs on every cycle.
func (r *Registry) Register(job Job) {
	r.Schedule(job, 0)
}

// Schedule adds a job that runs at most once per every.
func (r *Registry) Schedule(job Job, every time.Duration) {
	if job == nil {
		return
	}
	if every < 0 {
		every = 0
	}
	r.entries = append(r.entries, &scheduled{job: job, every: every})
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.entries))
	for _, e := range r.entries {
		jobs = append(jobs, e.job)
	}
	return jobs
}

func (r *Registry) due(now time.Time) []*scheduled {
	var out []*scheduled
	for _, e := range r.entries {
		if e.lastRun.IsZero() || e.every == 0 || now.Sub(e.lastRun) >= e.every {
			out = append(out, e)
		}
	}
	return out
}
