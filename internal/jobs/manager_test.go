package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/providers/genai"
)

type generatorFunc func(ctx context.Context, req genai.Request) (genai.AssetResult, error)

func (f generatorFunc) Generate(ctx context.Context, req genai.Request) (genai.AssetResult, error) {
	return f(ctx, req)
}

func sequentialIDs(prefix string) func() string {
	var n int32
	return func() string {
		return fmt.Sprintf("%s%d", prefix, atomic.AddInt32(&n, 1))
	}
}

func newTestManager(t *testing.T, gen Generator, mutate func(*Options)) *Manager {
	t.Helper()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	opts := Options{
		Generator: gen,
		NewID:     sequentialIDs("id-"),
		Now:       func() time.Time { return fixed },
		Sleep:     func(context.Context, time.Duration) error { return nil },
		DefaultParameters: domain.JobParameters{
			AspectRatio:     "16:9",
			DurationSeconds: 5,
			Resolution:      "720p",
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	m, err := NewManager(opts)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return m
}

func TestCreateJobsDefaults(t *testing.T) {
	m := newTestManager(t, generatorFunc(nil), nil)

	images, err := m.CreateJobs(domain.JobTypeImage, 0, []string{"a", "b"}, domain.JobParameters{})
	if err != nil {
		t.Fatalf("CreateJobs error: %v", err)
	}
	if len(images) != DefaultImageCount {
		t.Fatalf("got %d image jobs want %d", len(images), DefaultImageCount)
	}
	for i, j := range images {
		if j.Status != domain.JobStatusQueued || j.Progress != 0 || j.MaxRetries != 0 || j.RetryCount != 0 {
			t.Fatalf("job %d not freshly queued: %+v", i, j)
		}
		if want := []string{"a", "b"}[i%2]; j.Prompt != want {
			t.Fatalf("job %d prompt %q want %q", i, j.Prompt, want)
		}
		if j.Parameters.AspectRatio != "16:9" || j.Parameters.DurationSeconds != 0 {
			t.Fatalf("job %d parameters %+v", i, j.Parameters)
		}
	}
	if images[0].ID == images[1].ID {
		t.Fatalf("job ids must be unique")
	}

	videos, err := m.CreateJobs(domain.JobTypeVideo, -1, []string{"v"}, domain.JobParameters{AspectRatio: "9:16"})
	if err != nil {
		t.Fatalf("CreateJobs error: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("got %d video jobs want 1", len(videos))
	}
	p := videos[0].Parameters
	if p.AspectRatio != "9:16" || p.DurationSeconds != 5 || p.Resolution != "720p" {
		t.Fatalf("video parameters %+v", p)
	}

	if _, err := m.CreateJobs("audio", 1, nil, domain.JobParameters{}); !errors.Is(err, domain.ErrInvalidJobType) {
		t.Fatalf("got %v want invalid job type", err)
	}
}

func TestCreateJobsAudioDefault(t *testing.T) {
	on, off := true, false
	m := newTestManager(t, generatorFunc(nil), func(o *Options) {
		o.DefaultParameters.GenerateAudio = &on
	})

	inherited, err := m.CreateJobs(domain.JobTypeVideo, 1, []string{"v"}, domain.JobParameters{})
	if err != nil {
		t.Fatalf("CreateJobs error: %v", err)
	}
	if a := inherited[0].Parameters.GenerateAudio; a == nil || !*a {
		t.Fatalf("expected audio on by default, got %v", a)
	}

	muted, err := m.CreateJobs(domain.JobTypeVideo, 1, []string{"v"}, domain.JobParameters{GenerateAudio: &off})
	if err != nil {
		t.Fatalf("CreateJobs error: %v", err)
	}
	if a := muted[0].Parameters.GenerateAudio; a == nil || *a {
		t.Fatalf("explicit audio off was overridden: %v", a)
	}
}

func TestRunBatchIsolatesFailure(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, req genai.Request) (genai.AssetResult, error) {
		if req.Prompt == "p3" {
			return genai.AssetResult{}, domain.NewGenerationError(domain.ErrRateLimit, "predict", errors.New("quota"))
		}
		return genai.AssetResult{URL: "https://cdn.example.com/" + req.Prompt + ".png"}, nil
	})
	m := newTestManager(t, gen, nil)
	batch, err := m.CreateJobs(domain.JobTypeImage, 4, []string{"p1", "p2", "p3", "p4"}, domain.JobParameters{})
	if err != nil {
		t.Fatalf("CreateJobs error: %v", err)
	}

	var terminal []domain.JobStatus
	res := m.RunBatch(context.Background(), batch, func(job domain.GenerationJob, asset *domain.GeneratedAsset) {
		if job.Status.IsTerminal() {
			terminal = append(terminal, job.Status)
		}
	})

	want := []domain.JobStatus{domain.JobStatusCompleted, domain.JobStatusCompleted, domain.JobStatusFailed, domain.JobStatusCompleted}
	for i, j := range res.Jobs {
		if j.Status != want[i] {
			t.Fatalf("job %d status %s want %s", i, j.Status, want[i])
		}
	}
	if fmt.Sprint(terminal) != fmt.Sprint(want) {
		t.Fatalf("observer saw %v want %v", terminal, want)
	}
	if len(res.Assets) != 3 {
		t.Fatalf("got %d assets want 3", len(res.Assets))
	}
	for i, prompt := range []string{"p1", "p2", "p4"} {
		if !strings.HasSuffix(res.Assets[i].URL, prompt+".png") {
			t.Fatalf("asset %d url %q, want suffix %s.png", i, res.Assets[i].URL, prompt)
		}
	}
	failed := res.Jobs[2]
	if !strings.Contains(failed.ErrorMessage, "rate limit") || failed.ResultURL != "" || failed.CompletedAt == nil {
		t.Fatalf("failed job not recorded verbatim: %+v", failed)
	}
	if failed.RetryCount != 0 {
		t.Fatalf("no retries expected by default, got %d", failed.RetryCount)
	}
}

func TestRunJobAuthFailure(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, req genai.Request) (genai.AssetResult, error) {
		return genai.AssetResult{}, domain.NewGenerationError(domain.ErrAuth, "mint token", errors.New("invalid_grant"))
	})
	m := newTestManager(t, gen, func(o *Options) { o.MaxRetries = 3 })
	batch, _ := m.CreateJobs(domain.JobTypeImage, 1, []string{"x"}, domain.JobParameters{})

	job, asset := m.RunJob(context.Background(), batch[0])
	if job.Status != domain.JobStatusFailed || asset != nil {
		t.Fatalf("got %s with asset %v, want failed without asset", job.Status, asset)
	}
	if job.ResultURL != "" {
		t.Fatalf("failed job must not carry a result url")
	}
	if !strings.Contains(job.ErrorMessage, "invalid_grant") {
		t.Fatalf("error message %q", job.ErrorMessage)
	}
	if job.RetryCount != 0 {
		t.Fatalf("auth errors are not retried, got %d retries", job.RetryCount)
	}
}

func TestRunJobRetriesRetryableErrors(t *testing.T) {
	var calls int32
	gen := generatorFunc(func(ctx context.Context, req genai.Request) (genai.AssetResult, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return genai.AssetResult{}, domain.NewGenerationError(domain.ErrNetwork, "predict", errors.New("reset"))
		}
		return genai.AssetResult{URL: "https://cdn.example.com/ok.png"}, nil
	})
	var slept []time.Duration
	m := newTestManager(t, gen, func(o *Options) {
		o.MaxRetries = 2
		o.RetryDelay = 10 * time.Second
		o.Sleep = func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}
	})
	batch, _ := m.CreateJobs(domain.JobTypeImage, 1, []string{"x"}, domain.JobParameters{})

	job, asset := m.RunJob(context.Background(), batch[0])
	if job.Status != domain.JobStatusCompleted || asset == nil {
		t.Fatalf("got %s, want completed with asset", job.Status)
	}
	if job.RetryCount != 2 || len(slept) != 2 || slept[0] != 10*time.Second {
		t.Fatalf("retry count %d sleeps %v", job.RetryCount, slept)
	}
	if asset.URL != job.ResultURL || asset.JobID != job.ID || asset.Type != domain.AssetKindImage {
		t.Fatalf("asset %+v does not mirror job %+v", asset, job)
	}
}

func TestRunJobRetryBudgetExhausted(t *testing.T) {
	var calls int32
	gen := generatorFunc(func(ctx context.Context, req genai.Request) (genai.AssetResult, error) {
		atomic.AddInt32(&calls, 1)
		return genai.AssetResult{}, domain.NewGenerationError(domain.ErrRateLimit, "predict", errors.New("quota"))
	})
	m := newTestManager(t, gen, func(o *Options) { o.MaxRetries = 2 })
	batch, _ := m.CreateJobs(domain.JobTypeVideo, 1, []string{"x"}, domain.JobParameters{})

	job, _ := m.RunJob(context.Background(), batch[0])
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("got %s want failed", job.Status)
	}
	if job.RetryCount != job.MaxRetries || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("retry count %d max %d calls %d", job.RetryCount, job.MaxRetries, calls)
	}
}

func TestRunBatchConcurrentKeepsOrder(t *testing.T) {
	var inFlight, peak int32
	gen := generatorFunc(func(ctx context.Context, req genai.Request) (genai.AssetResult, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		// later jobs finish first
		var idx int
		fmt.Sscanf(req.Prompt, "p%d", &idx)
		time.Sleep(time.Duration(10-idx) * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		if idx == 2 {
			return genai.AssetResult{}, domain.NewGenerationError(domain.ErrPermission, "predict", errors.New("denied"))
		}
		return genai.AssetResult{URL: req.Prompt}, nil
	})
	m := newTestManager(t, gen, func(o *Options) { o.Concurrency = 3 })
	prompts := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	batch, _ := m.CreateJobs(domain.JobTypeImage, len(prompts), prompts, domain.JobParameters{})

	var mu sync.Mutex
	var order []string
	res := m.RunBatch(context.Background(), batch, func(job domain.GenerationJob, asset *domain.GeneratedAsset) {
		mu.Lock()
		defer mu.Unlock()
		if job.Status.IsTerminal() {
			order = append(order, job.Prompt)
		}
	})

	if strings.Join(order, ",") != strings.Join(prompts, ",") {
		t.Fatalf("terminal reports out of order: %v", order)
	}
	if got := atomic.LoadInt32(&peak); got > 3 {
		t.Fatalf("peak concurrency %d exceeds cap 3", got)
	}
	var urls []string
	for _, a := range res.Assets {
		urls = append(urls, a.URL)
	}
	if strings.Join(urls, ",") != "p1,p3,p4,p5,p6" {
		t.Fatalf("asset order %v", urls)
	}
}

func TestAssetFromJobOnlyForCompleted(t *testing.T) {
	ids := sequentialIDs("asset-")
	if a := AssetFromJob(domain.GenerationJob{Status: domain.JobStatusFailed, ResultURL: "x"}, ids); a != nil {
		t.Fatalf("failed job produced asset %+v", a)
	}
	if a := AssetFromJob(domain.GenerationJob{Status: domain.JobStatusCompleted}, ids); a != nil {
		t.Fatalf("job without url produced asset %+v", a)
	}
	a := AssetFromJob(domain.GenerationJob{ID: "j1", Type: domain.JobTypeVideo, Status: domain.JobStatusCompleted, ResultURL: "https://x/v.mp4"}, ids)
	if a == nil || a.ID != "asset-1" || a.Type != domain.AssetKindVideo || a.URL != "https://x/v.mp4" || a.IsApproved {
		t.Fatalf("unexpected asset %+v", a)
	}
}

func TestNewManagerRequiresGenerator(t *testing.T) {
	if _, err := NewManager(Options{}); err == nil {
		t.Fatal("expected error without generator")
	}
}
