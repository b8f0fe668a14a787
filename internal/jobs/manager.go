// Package jobs creates generation jobs and drives them through the remote
// generator, one batch at a time.
package jobs

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/providers/genai"
)

const (
	DefaultImageCount = 4
	DefaultVideoCount = 1

	progressProcessing = 10
	progressCompleted  = 100
)

// Generator performs one remote generation call.
type Generator interface {
	Generate(ctx context.Context, req genai.Request) (genai.AssetResult, error)
}

// Observer receives job snapshots as they change. asset is non-nil only for a
// completed job.
type Observer func(job domain.GenerationJob, asset *domain.GeneratedAsset)

// Options configures a Manager.
type Options struct {
	Generator         Generator
	MaxRetries        int
	RetryDelay        time.Duration
	Concurrency       int
	MinInterval       time.Duration
	DefaultImageCount int
	DefaultParameters domain.JobParameters
	NewID             func() string
	Now               func() time.Time
	Sleep             func(ctx context.Context, d time.Duration) error
	Logger            *infra.Logger
}

// Manager owns job status transitions. It never touches workflow state; callers
// fold the returned jobs and assets in themselves.
type Manager struct {
	gen         Generator
	maxRetries  int
	retryDelay  time.Duration
	concurrency int
	limiter     *rate.Limiter
	imageCount  int
	defaults    domain.JobParameters
	newID       func() string
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
	logger      zerolog.Logger
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("jobs: generator is required")
	}
	m := &Manager{
		gen:         opts.Generator,
		maxRetries:  opts.MaxRetries,
		retryDelay:  opts.RetryDelay,
		concurrency: opts.Concurrency,
		imageCount:  opts.DefaultImageCount,
		defaults:    opts.DefaultParameters,
		newID:       opts.NewID,
		now:         opts.Now,
		sleep:       opts.Sleep,
		logger:      zerolog.New(io.Discard),
	}
	if m.maxRetries < 0 {
		m.maxRetries = 0
	}
	if m.concurrency < 1 {
		m.concurrency = 1
	}
	if m.imageCount <= 0 {
		m.imageCount = DefaultImageCount
	}
	if opts.MinInterval > 0 {
		m.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.sleep == nil {
		m.sleep = sleepContext
	}
	if opts.Logger != nil {
		m.logger = *opts.Logger
	}
	return m, nil
}

// CreateJobs returns count queued jobs of type t. A non-positive count uses the
// type's default. Prompts are assigned round-robin.
func (m *Manager) CreateJobs(t domain.JobType, count int, prompts []string, params domain.JobParameters) ([]domain.GenerationJob, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("jobs: %w: %q", domain.ErrInvalidJobType, t)
	}
	if count <= 0 {
		count = m.DefaultCount(t)
	}
	params = m.withDefaults(t, params)
	now := m.now()

	out := make([]domain.GenerationJob, count)
	for i := range out {
		prompt := ""
		if len(prompts) > 0 {
			prompt = prompts[i%len(prompts)]
		}
		job := domain.GenerationJob{
			ID:         m.newID(),
			Type:       t,
			Status:     domain.JobStatusQueued,
			Prompt:     prompt,
			Parameters: params,
			MaxRetries: m.maxRetries,
			CreatedAt:  now,
		}
		out[i] = job.Clone()
	}
	return out, nil
}

// DefaultCount is the batch size used when a caller asks for none.
func (m *Manager) DefaultCount(t domain.JobType) int {
	if t == domain.JobTypeVideo {
		return DefaultVideoCount
	}
	return m.imageCount
}

func (m *Manager) withDefaults(t domain.JobType, p domain.JobParameters) domain.JobParameters {
	d := m.defaults
	if p.AspectRatio == "" {
		p.AspectRatio = d.AspectRatio
	}
	if t == domain.JobTypeVideo {
		if p.DurationSeconds <= 0 {
			p.DurationSeconds = d.DurationSeconds
		}
		if p.Resolution == "" {
			p.Resolution = d.Resolution
		}
		if p.GenerateAudio == nil && d.GenerateAudio != nil {
			audio := *d.GenerateAudio
			p.GenerateAudio = &audio
		}
	}
	return p
}

// RunJob drives one job to a terminal state.
func (m *Manager) RunJob(ctx context.Context, job domain.GenerationJob) (domain.GenerationJob, *domain.GeneratedAsset) {
	return m.run(ctx, job, nil)
}

func (m *Manager) run(ctx context.Context, job domain.GenerationJob, report Observer) (domain.GenerationJob, *domain.GeneratedAsset) {
	job = job.Clone()
	started := m.now()
	job.Status = domain.JobStatusProcessing
	job.StartedAt = &started
	job.Progress = progressProcessing
	if report != nil {
		report(job.Clone(), nil)
	}

	log := m.logger.With().Str("job_id", job.ID).Str("job_type", string(job.Type)).Logger()
	req := genai.Request{
		JobID:          job.ID,
		Type:           job.Type,
		Prompt:         job.Prompt,
		Parameters:     job.Parameters,
		ReferenceImage: job.Parameters.ReferenceImage,
	}

	for {
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				return m.fail(job, domain.NewGenerationError(domain.ErrNetwork, "wait for submission slot", err), log)
			}
		}
		res, err := m.gen.Generate(ctx, req)
		if err == nil {
			job = m.complete(job, res.URL)
			log.Info().Int("retry_count", job.RetryCount).Msg("jobs: job completed")
			return job, AssetFromJob(job, m.newID)
		}
		if !domain.Retryable(err) || job.RetryCount >= job.MaxRetries {
			return m.fail(job, err, log)
		}
		job.RetryCount++
		log.Warn().Err(err).Int("attempt", job.RetryCount).Dur("delay", m.retryDelay).Msg("jobs: retrying job")
		if report != nil {
			report(job.Clone(), nil)
		}
		if m.retryDelay > 0 {
			if serr := m.sleep(ctx, m.retryDelay); serr != nil {
				return m.fail(job, err, log)
			}
		}
	}
}

func (m *Manager) complete(job domain.GenerationJob, url string) domain.GenerationJob {
	done := m.now()
	job.Status = domain.JobStatusCompleted
	job.Progress = progressCompleted
	job.ResultURL = url
	job.ErrorMessage = ""
	job.CompletedAt = &done
	return job
}

func (m *Manager) fail(job domain.GenerationJob, err error, log zerolog.Logger) (domain.GenerationJob, *domain.GeneratedAsset) {
	done := m.now()
	job.Status = domain.JobStatusFailed
	job.ResultURL = ""
	job.ErrorMessage = err.Error()
	job.CompletedAt = &done
	log.Warn().Err(err).Int("retry_count", job.RetryCount).Msg("jobs: job failed")
	return job, nil
}

// BatchResult is the outcome of RunBatch. Assets follow job order.
type BatchResult struct {
	Jobs   []domain.GenerationJob
	Assets []domain.GeneratedAsset
}

// RunBatch runs every job and reports results in creation order. A failed job
// never stops the batch. With Concurrency above one, up to that many jobs are
// in flight at once but terminal snapshots are still reported in order.
func (m *Manager) RunBatch(ctx context.Context, batch []domain.GenerationJob, observe Observer) BatchResult {
	var mu sync.Mutex
	report := func(job domain.GenerationJob, asset *domain.GeneratedAsset) {
		if observe == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		observe(job, asset)
	}

	jobs := make([]domain.GenerationJob, len(batch))
	assets := make([]*domain.GeneratedAsset, len(batch))

	if m.concurrency <= 1 || len(batch) <= 1 {
		for i, job := range batch {
			jobs[i], assets[i] = m.run(ctx, job, report)
			report(jobs[i].Clone(), cloneAsset(assets[i]))
		}
		return collect(jobs, assets)
	}

	done := make([]chan struct{}, len(batch))
	for i := range done {
		done[i] = make(chan struct{})
	}
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	go func() {
		for i, job := range batch {
			i, job := i, job
			g.Go(func() error {
				defer close(done[i])
				jobs[i], assets[i] = m.run(ctx, job, report)
				return nil
			})
		}
	}()
	for i := range batch {
		<-done[i]
		report(jobs[i].Clone(), cloneAsset(assets[i]))
	}
	_ = g.Wait()
	return collect(jobs, assets)
}

func collect(jobs []domain.GenerationJob, assets []*domain.GeneratedAsset) BatchResult {
	out := BatchResult{Jobs: jobs, Assets: []domain.GeneratedAsset{}}
	for _, a := range assets {
		if a != nil {
			out.Assets = append(out.Assets, *a)
		}
	}
	return out
}

func cloneAsset(a *domain.GeneratedAsset) *domain.GeneratedAsset {
	if a == nil {
		return nil
	}
	c := a.Clone()
	return &c
}

// AssetFromJob maps a completed job to its asset. It is the only place a job's
// result URL becomes an asset URL.
func AssetFromJob(job domain.GenerationJob, newID func() string) *domain.GeneratedAsset {
	if job.Status != domain.JobStatusCompleted || job.ResultURL == "" {
		return nil
	}
	if newID == nil {
		newID = uuid.NewString
	}
	kind := domain.AssetKindImage
	if job.Type == domain.JobTypeVideo {
		kind = domain.AssetKindVideo
	}
	return &domain.GeneratedAsset{
		ID:            newID(),
		JobID:         job.ID,
		Type:          kind,
		URL:           job.ResultURL,
		QualityIssues: []string{},
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
