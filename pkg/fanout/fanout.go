// Package fanout runs the same command set across many hosts concurrently,
// bounded to a fixed worker count. Each host gets its own *driver.Driver;
// no state is shared between them, so one host's failure or slow response
// never blocks another's.
package fanout

import (
	"golang.org/x/sync/errgroup"

	"github.com/ngoclaw/clidriver/pkg/driver"
)

// Job is one host's unit of work: a builder (not yet opened) and the
// commands to run once it is.
type Job struct {
	Host     string
	Builder  *driver.Builder
	Commands []string
}

// Result is one job's outcome. Err is set if building, opening, or any
// command in the sequence failed; Responses holds whatever commands did
// complete before that.
type Result struct {
	Host      string
	Responses []driver.Response
	Err       error
}

// Run executes every job, at most concurrency at a time, and returns one
// Result per job in the same order jobs were given. concurrency <= 0 means
// unbounded.
func Run(jobs []Job, concurrency int) []Result {
	results := make([]Result, len(jobs))

	g := new(errgroup.Group)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = runOne(job)
			return nil // errors are carried in Result.Err, not propagated to Wait
		})
	}
	_ = g.Wait()

	return results
}

func runOne(job Job) Result {
	d, err := job.Builder.Build()
	if err != nil {
		return Result{Host: job.Host, Err: err}
	}
	if err := d.Open(); err != nil {
		return Result{Host: job.Host, Err: err}
	}
	defer d.Close()

	resps, err := d.SendCommands(job.Commands)
	return Result{Host: job.Host, Responses: resps, Err: err}
}
