package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/retriever"
	"github.com/xxxsen/brandbot/internal/vectorindex"
)

// IndexVerifyJob re-checks the on-disk index and reports when it no longer
// matches the handle being served.
type IndexVerifyJob struct {
	dir        string
	name       string
	sampleSize int
	served     func() retriever.Stats
}

func NewIndexVerifyJob(dir, name string, sampleSize int, served func() retriever.Stats) *IndexVerifyJob {
	return &IndexVerifyJob{dir: dir, name: name, sampleSize: sampleSize, served: served}
}

func (j *IndexVerifyJob) Name() string {
	return "index_verify"
}

func (j *IndexVerifyJob) Run(ctx context.Context) error {
	rep, err := vectorindex.Verify(ctx, j.dir, j.name, -1, j.sampleSize)
	if err != nil {
		return err
	}
	if j.served == nil {
		return nil
	}
	cur := j.served()
	if rep.BuildTime != cur.BuildTime || rep.Count != cur.Documents {
		logutil.GetLogger(ctx).Warn("index on disk differs from loaded index, restart to serve it",
			zap.Int("disk_count", rep.Count),
			zap.Int("served_count", cur.Documents),
			zap.Int64("disk_build_time", rep.BuildTime),
			zap.Int64("served_build_time", cur.BuildTime),
		)
	}
	return nil
}
