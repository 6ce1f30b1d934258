package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	runs     int
	err      error
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestAddJob(t *testing.T) {
	s := New(logger.NewNop())

	job := &fakeJob{name: "refresh", schedule: "0 0 18 * * *"}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() returned error: %v", err)
	}

	if err := s.AddJob(job); err == nil {
		t.Error("AddJob() should reject a duplicate job name")
	}

	if err := s.AddJob(&fakeJob{name: "bad", schedule: "not-a-cron"}); err == nil {
		t.Error("AddJob() should reject an invalid schedule")
	}
}

func TestGetAllJobs(t *testing.T) {
	s := New(logger.NewNop())

	_ = s.AddJob(&fakeJob{name: "zeta", schedule: "@daily"})
	_ = s.AddJob(&fakeJob{name: "alpha", schedule: "@daily"})

	jobs := s.GetAllJobs()
	if len(jobs) != 2 || jobs[0] != "alpha" || jobs[1] != "zeta" {
		t.Errorf("GetAllJobs() = %v, want [alpha zeta]", jobs)
	}

	schedule, ok := s.Schedule("alpha")
	if !ok || schedule != "@daily" {
		t.Errorf("Schedule(alpha) = %q, %v", schedule, ok)
	}
	if _, ok := s.Schedule("missing"); ok {
		t.Error("Schedule() should report missing jobs")
	}
}

func TestRunJob_RecordsHistory(t *testing.T) {
	s := New(logger.NewNop())
	s.maxRetries = 0

	job := &fakeJob{name: "refresh", schedule: "@daily"}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() returned error: %v", err)
	}

	s.runJob(job)

	if job.runs != 1 {
		t.Errorf("job ran %d times, want 1", job.runs)
	}
	history := s.History("refresh")
	if len(history.Results) != 1 {
		t.Fatalf("history has %d results, want 1", len(history.Results))
	}
	if !history.Results[0].Success {
		t.Error("result should be marked successful")
	}
}

func TestRunJob_RetriesOnFailure(t *testing.T) {
	s := New(logger.NewNop())
	s.maxRetries = 2
	s.retryDelay = time.Millisecond

	job := &fakeJob{name: "refresh", schedule: "@daily", err: errors.New("boom")}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() returned error: %v", err)
	}

	s.runJob(job)

	if job.runs != 3 {
		t.Errorf("job ran %d times, want 3 (initial + 2 retries)", job.runs)
	}
	history := s.History("refresh")
	if len(history.Results) != 1 {
		t.Fatalf("history has %d results, want 1", len(history.Results))
	}
	if history.Results[0].Success {
		t.Error("result should be marked failed")
	}
	if history.Results[0].Error != "boom" {
		t.Errorf("result error = %q, want boom", history.Results[0].Error)
	}
	if rate := history.GetSuccessRate(); rate != 0 {
		t.Errorf("GetSuccessRate() = %v, want 0", rate)
	}
}

func TestRunJob_Unknown(t *testing.T) {
	s := New(logger.NewNop())
	if err := s.RunJob("nope"); err == nil {
		t.Error("RunJob() should fail for an unregistered job")
	}
}
