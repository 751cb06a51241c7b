package jobs

import (
	"context"
	"fmt"

	"github.com/5ys-5y5/alsign-sub001/internal/consensus"
	"github.com/5ys-5y5/alsign-sub001/pkg/logger"
)

// ConsensusBackfillJob re-links every consensus partition so late-arriving
// events get their previous-publication comparison.
type ConsensusBackfillJob struct {
	resolver *consensus.Resolver
	logger   *logger.Logger
}

// NewConsensusBackfillJob creates a new consensus backfill job.
func NewConsensusBackfillJob(resolver *consensus.Resolver, log *logger.Logger) *ConsensusBackfillJob {
	return &ConsensusBackfillJob{
		resolver: resolver,
		logger:   log,
	}
}

// Name returns the job name.
func (j *ConsensusBackfillJob) Name() string {
	return "consensus_backfill"
}

// Schedule returns the cron schedule (every 6 hours).
func (j *ConsensusBackfillJob) Schedule() string {
	return "0 0 */6 * * *"
}

// Run resolves every partition known to the store.
func (j *ConsensusBackfillJob) Run(ctx context.Context) error {
	total, err := j.resolver.ResolveAll(ctx)
	if err != nil {
		return fmt.Errorf("consensus backfill: %w", err)
	}

	j.logger.WithField("events", total).Info("Consensus backfill completed")
	return nil
}
