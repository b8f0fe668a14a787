package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/workflow"
)

// JobsInput requests a generation batch.
type JobsInput struct {
	Type       domain.JobType       `json:"job_type"`
	Count      int                  `json:"count"`
	Parameters domain.JobParameters `json:"parameters"`
	// Prompt overrides the prompts built from the brief and strategy.
	Prompt string `json:"prompt,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// CreateJobs queues a batch and starts it in the background. The returned jobs
// are the queued snapshots; progress is folded into the campaign state as the
// batch runs.
func (s *Service) CreateJobs(ctx context.Context, campaignID, userID string, in JobsInput) ([]domain.GenerationJob, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("studio: %w: %q", domain.ErrInvalidJobType, in.Type)
	}

	st := sess.engine.State()
	if st.Stage != domain.StageGenerate {
		return nil, fmt.Errorf("studio: create jobs at %s: %w", st.Stage, domain.ErrStageMismatch)
	}
	strategy, ok := st.SelectedStrategy()
	if !ok {
		return nil, fmt.Errorf("studio: create jobs: %w", domain.ErrNoStrategy)
	}

	s.mu.Lock()
	if sess.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("studio: campaign %s: %w", campaignID, domain.ErrBatchRunning)
	}
	sess.running = true
	s.mu.Unlock()

	batch, err := s.manager.CreateJobs(in.Type, in.Count, s.batchPrompts(st, &strategy, in), in.Parameters)
	if err != nil {
		s.finishBatch(sess)
		return nil, err
	}
	for i, job := range batch {
		sess.engine.Dispatch(workflow.UpsertJob{Job: job})
		s.persistJob(ctx, campaignID, position(len(st.Jobs), i), job)
	}
	sess.engine.Dispatch(workflow.SetError{Message: ""})
	sess.engine.Dispatch(workflow.SetLoading{Loading: true})

	s.logger.Info().
		Str("campaign_id", campaignID).
		Str("job_type", string(in.Type)).
		Int("count", len(batch)).
		Msg("studio: generation batch queued")

	s.batches.Add(1)
	go s.runBatch(context.WithoutCancel(ctx), sess, campaignID, len(st.Jobs), len(st.Assets), batch)

	out := make([]domain.GenerationJob, len(batch))
	for i, j := range batch {
		out[i] = j.Clone()
	}
	return out, nil
}

func (s *Service) batchPrompts(st workflow.State, strategy *domain.CreativeStrategy, in JobsInput) []string {
	if p := strings.TrimSpace(in.Prompt); p != "" {
		return []string{p}
	}
	if in.Type == domain.JobTypeVideo {
		return []string{s.prompts.VideoPrompt(st.Brief, strategy, in.Parameters.DurationSeconds, in.Locale)}
	}
	count := in.Count
	if count <= 0 {
		count = s.manager.DefaultCount(in.Type)
	}
	return s.prompts.ImagePrompts(st.Brief, strategy, count, in.Locale)
}

func (s *Service) runBatch(ctx context.Context, sess *session, campaignID string, jobOffset, assetOffset int, batch []domain.GenerationJob) {
	defer s.batches.Done()
	defer s.finishBatch(sess)

	index := make(map[string]int, len(batch))
	for i, j := range batch {
		index[j.ID] = i
	}
	nextAsset := assetOffset

	res := s.manager.RunBatch(ctx, batch, func(job domain.GenerationJob, asset *domain.GeneratedAsset) {
		sess.engine.Dispatch(workflow.UpsertJob{Job: job})
		s.persistJob(ctx, campaignID, position(jobOffset, index[job.ID]), job)
		if asset != nil {
			sess.engine.Dispatch(workflow.UpsertAsset{Asset: *asset})
			if err := s.assets.Upsert(ctx, campaignID, nextAsset, *asset); err != nil {
				s.logger.Error().Err(err).Str("campaign_id", campaignID).Str("asset_id", asset.ID).Msg("studio: persist asset failed")
			}
			nextAsset++
		}
	})

	failed := 0
	for _, j := range res.Jobs {
		if j.Status == domain.JobStatusFailed {
			failed++
		}
	}
	if len(res.Assets) == 0 && failed > 0 {
		sess.engine.Dispatch(workflow.SetError{Message: fmt.Sprintf("all %d generation jobs failed", failed)})
	}
	s.logger.Info().
		Str("campaign_id", campaignID).
		Int("completed", len(res.Assets)).
		Int("failed", failed).
		Msg("studio: generation batch finished")
}

func (s *Service) finishBatch(sess *session) {
	sess.engine.Dispatch(workflow.SetLoading{Loading: false})
	s.mu.Lock()
	sess.running = false
	s.mu.Unlock()
}

func (s *Service) persistJob(ctx context.Context, campaignID string, pos int, job domain.GenerationJob) {
	if err := s.jobRepo.Upsert(ctx, campaignID, pos, job); err != nil {
		s.logger.Error().Err(err).Str("campaign_id", campaignID).Str("job_id", job.ID).Msg("studio: persist job failed")
	}
}

func position(offset, i int) int {
	return offset + i
}
