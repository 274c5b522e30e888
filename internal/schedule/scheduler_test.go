package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  int
	err   error
	panic bool
}

func (j *countingJob) Name() string {
	return j.name
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	if j.panic {
		panic("boom")
	}
	return j.err
}

func TestCronScheduler_AddAndTrigger(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "verify"}
	require.NoError(t, s.AddJob(job, "@every 1h"))
	require.Error(t, s.AddJob(job, "@every 1h"))

	require.NoError(t, s.Trigger("verify"))
	require.Equal(t, 1, job.runs)
	require.Error(t, s.Trigger("missing"))
}

func TestCronScheduler_InvalidSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&countingJob{name: "bad"}, "not a spec"))
}

func TestCronScheduler_TriggerOnlyAndFailures(t *testing.T) {
	s := NewCronScheduler()
	failing := &countingJob{name: "failing", err: errors.New("nope")}
	panicking := &countingJob{name: "panicking", panic: true}
	require.NoError(t, s.AddJob(failing, ""))
	require.NoError(t, s.AddJob(panicking, ""))

	require.NoError(t, s.Trigger("failing"))
	require.NoError(t, s.Trigger("panicking"))
	require.NoError(t, s.Trigger("panicking"))
	require.Equal(t, 1, failing.runs)
	require.Equal(t, 2, panicking.runs)
}
