package storage

import (
	"context"
	"time"

	"pdfbatch/internal/infra/logging"
)

// Task is one cleanup job; it returns how many entries it removed.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// SweepTask expires documents of s older than retention.
func SweepTask(s Sweeper, retention time.Duration) Task {
	return Task{
		Name: "output retention",
		Run: func(ctx context.Context) (int, error) {
			return s.Sweep(ctx, retention)
		},
	}
}

// SpoolTask removes spool files left behind by interrupted requests.
func SpoolTask(dir string, maxAge time.Duration) Task {
	return Task{
		Name: "spool cleanup",
		Run: func(ctx context.Context) (int, error) {
			return RemoveOlderThan(ctx, dir, maxAge)
		},
	}
}

// Janitor runs cleanup tasks on a fixed interval.
type Janitor struct {
	interval time.Duration
	tasks    []Task
}

func NewJanitor(interval time.Duration, tasks ...Task) *Janitor {
	return &Janitor{interval: interval, tasks: tasks}
}

// Len returns the number of scheduled tasks.
func (j *Janitor) Len() int { return len(j.tasks) }

// RunOnce runs every task once and logs failures.
func (j *Janitor) RunOnce(ctx context.Context) {
	for _, t := range j.tasks {
		n, err := t.Run(ctx)
		if err != nil {
			logging.Error("Cleanup task failed", "task", t.Name, "error", err)
			continue
		}
		if n > 0 {
			logging.Info("Cleanup task removed files", "task", t.Name, "removed", n)
		}
	}
}

// Run repeats RunOnce every interval until stop is closed.
func (j *Janitor) Run(stop <-chan struct{}) {
	if j.interval <= 0 || len(j.tasks) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-stop:
			return
		}
	}
}
