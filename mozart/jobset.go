package mozart

import (
	"context"
	"time"

	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/observability"
	"github.com/hysds/mozart-go/pkg/poll"
	"github.com/rs/zerolog"
)

// memberDelay Pause between status checks of different members within
// one polling pass.
const memberDelay = 500 * time.Millisecond

// JobSet An ordered, append-only collection of job handles with bulk
// completion polling. Not safe for concurrent mutation.
type JobSet struct {
	client *Client
	jobs   []*Job
	logger zerolog.Logger
}

// NewJobSet Builds a job set from the given handles
func (c *Client) NewJobSet(jobs ...*Job) *JobSet {
	set := &JobSet{
		client: c,
		logger: c.logger.With().Str("pkg", "jobset").Logger(),
	}
	for _, job := range jobs {
		if job != nil {
			set.jobs = append(set.jobs, job)
		}
	}
	return set
}

// Append Adds a job handle to the set; duplicates are kept
func (s *JobSet) Append(job *Job) error {
	if job == nil {
		return apierrors.NewValidation("appended job must be a Job handle")
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Len The number of members
func (s *JobSet) Len() int {
	return len(s.jobs)
}

// Jobs The members in append order
func (s *JobSet) Jobs() []*Job {
	return s.jobs
}

// At The member at index i
func (s *JobSet) At(i int) *Job {
	return s.jobs[i]
}

// WaitForCompletion Polls with the default cadence until every member
// is done. See WaitForCompletionWithPolicy.
func (s *JobSet) WaitForCompletion(ctx context.Context) error {
	return s.WaitForCompletionWithPolicy(ctx, poll.Default())
}

// WaitForCompletionWithPolicy Polls all members under the given policy
// until each is done. A member is done once a terminal status is
// observed, or once a status check for it errors: an erroring member is
// counted permanently done and never re-polled. That differs from the
// single-job wait, which retries transient errors; the bulk loop trades
// accuracy for guaranteed progress across many members.
func (s *JobSet) WaitForCompletionWithPolicy(ctx context.Context, policy poll.Policy) error {
	done := make([]bool, len(s.jobs))
	remaining := len(s.jobs)

	return policy.Wait(ctx, func(ctx context.Context) (bool, error) {
		for i, job := range s.jobs {
			if done[i] {
				continue
			}
			observability.ObservePollTick()
			status, err := job.GetStatus(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false, context.Cause(ctx)
				}
				s.logger.Warn().Err(err).Str("job", job.ID()).Msg("status check failed, counting member done")
				done[i] = true
				remaining--
			} else {
				s.logger.Info().Str("job", job.ID()).Str("status", status.String()).Msg("job status")
				if status.IsTerminal() {
					done[i] = true
					remaining--
				}
			}
			if i < len(s.jobs)-1 {
				if err := sleepBetweenMembers(ctx); err != nil {
					return false, err
				}
			}
		}
		return remaining == 0, nil
	})
}

func sleepBetweenMembers(ctx context.Context) error {
	timer := time.NewTimer(memberDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}
