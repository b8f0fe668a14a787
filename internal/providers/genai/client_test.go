package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/infra/google"
	"github.com/leavend/campaign-studio/internal/storage"
)

type staticTokens struct {
	token google.AccessToken
	err   error
	calls int32
}

func (s *staticTokens) Token(ctx context.Context) (google.AccessToken, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.token, s.err
}

type recordingSleep struct {
	calls []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.calls = append(r.calls, d)
	return nil
}

func (r *recordingSleep) total() time.Duration {
	var sum time.Duration
	for _, d := range r.calls {
		sum += d
	}
	return sum
}

func newTestClient(t *testing.T, srv *httptest.Server, sleeper *recordingSleep, mutate func(*Options)) *Client {
	t.Helper()
	opts := Options{
		BaseURL:    srv.URL + "/v1",
		Project:    "demo",
		Region:     "us-central1",
		Tokens:     &staticTokens{token: google.AccessToken{Value: "ya29.test"}},
		HTTPClient: srv.Client(),
		Sleep:      sleeper.sleep,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := NewClient(opts)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestGenerateImageInlineBecomesDataURI(t *testing.T) {
	var captured predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "/v1/projects/demo/locations/us-central1/publishers/google/models/imagen-3.0-generate-002:predict"
		if r.URL.Path != want {
			t.Fatalf("got path %s want %s", r.URL.Path, want)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ya29.test" {
			t.Fatalf("got authorization %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		writeJSON(w, http.StatusOK, `{"predictions":[{"bytesBase64Encoded":"aGVsbG8=","mimeType":"image/png"}]}`)
	}))
	defer srv.Close()

	sleeper := &recordingSleep{}
	c := newTestClient(t, srv, sleeper, nil)
	res, err := c.Generate(context.Background(), Request{
		Type:       domain.JobTypeImage,
		Prompt:     "  a bakery storefront at dawn ",
		Parameters: domain.JobParameters{AspectRatio: "16:9", DurationSeconds: 5, Resolution: "720p"},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if res.URL != "data:image/png;base64,aGVsbG8=" || !res.Inline {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(sleeper.calls) != 0 {
		t.Fatalf("synchronous result should not poll, slept %d times", len(sleeper.calls))
	}
	if len(captured.Instances) != 1 || captured.Instances[0].Prompt != "a bakery storefront at dawn" {
		t.Fatalf("unexpected instances %+v", captured.Instances)
	}
	p := captured.Parameters
	if p.SampleCount != 1 || p.AspectRatio != "16:9" {
		t.Fatalf("unexpected parameters %+v", p)
	}
	if p.DurationSeconds != 0 || p.GenerateAudio != nil {
		t.Fatalf("image request should not carry video parameters: %+v", p)
	}
}

func TestGenerateVideoPollsUntilDone(t *testing.T) {
	var polls int32
	var captured predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "veo-3.0-generate-001:predictLongRunning"):
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			writeJSON(w, http.StatusOK, `{"name":"projects/demo/locations/us-central1/operations/op-1"}`)
		case strings.HasSuffix(r.URL.Path, ":fetchPredictOperation"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["operationName"] != "projects/demo/locations/us-central1/operations/op-1" {
				t.Fatalf("unexpected operation name %q", body["operationName"])
			}
			if atomic.AddInt32(&polls, 1) < 3 {
				writeJSON(w, http.StatusOK, `{"name":"op-1","done":false}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"name":"op-1","done":true,"response":{"videos":[{"gcsUri":"gs://bucket/videos/out.mp4","mimeType":"video/mp4"}]}}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	sleeper := &recordingSleep{}
	c := newTestClient(t, srv, sleeper, nil)
	audioOn := true
	res, err := c.Generate(context.Background(), Request{
		Type:   domain.JobTypeVideo,
		Prompt: "a barista pouring latte art",
		Parameters: domain.JobParameters{
			DurationSeconds: 5,
			AspectRatio:     "9:16",
			Resolution:      "720p",
			GenerateAudio:   &audioOn,
		},
		ReferenceImage: &domain.ReferenceImage{Data: []byte("png-bytes"), MIMEType: "image/png"},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if res.URL != "https://storage.googleapis.com/bucket/videos/out.mp4" || res.Inline {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := atomic.LoadInt32(&polls); got != 3 {
		t.Fatalf("got %d polls want 3", got)
	}
	if len(sleeper.calls) != 3 || sleeper.calls[0] != DefaultPollInterval {
		t.Fatalf("unexpected sleeps %v", sleeper.calls)
	}
	p := captured.Parameters
	if p.DurationSeconds != 5 || p.Resolution != "720p" || p.GenerateAudio == nil || !*p.GenerateAudio {
		t.Fatalf("unexpected video parameters %+v", p)
	}
	img := captured.Instances[0].Image
	if img == nil || string(img.BytesBase64Encoded) != "png-bytes" || img.MIMEType != "image/png" {
		t.Fatalf("reference image not attached: %+v", img)
	}
}

func TestGenerateTimesOutAfterPollBudget(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			writeJSON(w, http.StatusOK, `{"name":"op-slow"}`)
			return
		}
		atomic.AddInt32(&polls, 1)
		writeJSON(w, http.StatusOK, `{"name":"op-slow","done":false}`)
	}))
	defer srv.Close()

	sleeper := &recordingSleep{}
	c := newTestClient(t, srv, sleeper, nil)
	_, err := c.Generate(context.Background(), Request{Type: domain.JobTypeVideo, Prompt: "slow"})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("got %v want timeout", err)
	}
	if got := atomic.LoadInt32(&polls); got != DefaultMaxPollAttempts {
		t.Fatalf("got %d polls want %d", got, DefaultMaxPollAttempts)
	}
	if sleeper.total() != 180*time.Second {
		t.Fatalf("got simulated wait %v want 180s", sleeper.total())
	}
}

func TestGenerateStopsOnOperationError(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			writeJSON(w, http.StatusOK, `{"name":"op-bad"}`)
			return
		}
		atomic.AddInt32(&polls, 1)
		writeJSON(w, http.StatusOK, `{"name":"op-bad","done":true,"error":{"code":3,"message":"prompt rejected"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &recordingSleep{}, nil)
	_, err := c.Generate(context.Background(), Request{Type: domain.JobTypeVideo, Prompt: "x"})
	if !errors.Is(err, domain.ErrOperationFailed) {
		t.Fatalf("got %v want operation failure", err)
	}
	if !strings.Contains(err.Error(), "prompt rejected") {
		t.Fatalf("error should carry remote message: %v", err)
	}
	if domain.Retryable(err) {
		t.Fatalf("operation failure must not be retryable")
	}
	if got := atomic.LoadInt32(&polls); got != 1 {
		t.Fatalf("got %d polls want 1", got)
	}
}

func TestGenerateMapsHTTPStatus(t *testing.T) {
	cases := []struct {
		status    int
		kind      error
		retryable bool
	}{
		{http.StatusUnauthorized, domain.ErrAuth, false},
		{http.StatusForbidden, domain.ErrPermission, false},
		{http.StatusTooManyRequests, domain.ErrRateLimit, true},
		{http.StatusInternalServerError, domain.ErrNetwork, true},
		{http.StatusServiceUnavailable, domain.ErrNetwork, true},
		{http.StatusBadRequest, domain.ErrOperationFailed, false},
		{http.StatusNotFound, domain.ErrOperationFailed, false},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, `{"error":{"code":1,"message":"nope"}}`)
			}))
			defer srv.Close()

			c := newTestClient(t, srv, &recordingSleep{}, nil)
			_, err := c.Generate(context.Background(), Request{Type: domain.JobTypeImage, Prompt: "x"})
			if !errors.Is(err, tc.kind) {
				t.Fatalf("got %v want %v", err, tc.kind)
			}
			var genErr *domain.GenerationError
			if !errors.As(err, &genErr) || genErr.StatusCode != tc.status {
				t.Fatalf("expected status %d on %v", tc.status, err)
			}
			if got := domain.Retryable(err); got != tc.retryable {
				t.Fatalf("Retryable(%v) = %v want %v", err, got, tc.retryable)
			}
		})
	}
}

func TestGenerateTokenFailureSkipsRemote(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &recordingSleep{}, func(o *Options) {
		o.Tokens = &staticTokens{err: errors.New("key revoked")}
	})
	_, err := c.Generate(context.Background(), Request{Type: domain.JobTypeImage, Prompt: "x"})
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("got %v want auth error", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("remote should not be called without a token")
	}
}

func TestGenerateMalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"not json":      `<html>`,
		"empty":         `{}`,
		"done no media": `{"name":"op","done":true,"response":{}}`,
		"empty item":    `{"predictions":[{"mimeType":"image/png"}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			}))
			defer srv.Close()

			c := newTestClient(t, srv, &recordingSleep{}, nil)
			_, err := c.Generate(context.Background(), Request{Type: domain.JobTypeImage, Prompt: "x"})
			if !errors.Is(err, domain.ErrMalformedResponse) {
				t.Fatalf("got %v want malformed response", err)
			}
		})
	}
}

func TestGenerateInlineWrittenToStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"predictions":[{"bytesBase64Encoded":"aGVsbG8=","mimeType":"image/png"}]}`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	c := newTestClient(t, srv, &recordingSleep{}, func(o *Options) {
		o.Store = store
		o.PublicBaseURL = "https://cdn.example.com/static/"
	})
	res, err := c.Generate(context.Background(), Request{JobID: "job-1", Type: domain.JobTypeImage, Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if res.URL != "https://cdn.example.com/static/generated/image/job-1.png" {
		t.Fatalf("unexpected url %q", res.URL)
	}
	data, err := os.ReadFile(filepath.Join(dir, "generated", "image", "job-1.png"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("stored bytes mismatch: %q %v", data, err)
	}
}

func TestGenerateCancelledWhilePolling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"name":"op"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, srv, &recordingSleep{}, func(o *Options) {
		o.Sleep = func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		}
	})
	_, err := c.Generate(ctx, Request{Type: domain.JobTypeVideo, Prompt: "x"})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("got %v want cancelled network error", err)
	}
}

func TestGenerateDownloadsHTTPSReference(t *testing.T) {
	var captured predictRequest
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/assets/logo.png" {
			if r.Header.Get("Authorization") != "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("logo-bytes"))
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, `{"predictions":[{"gcsUri":"gs://bucket/out.png"}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &recordingSleep{}, nil)
	_, err := c.Generate(context.Background(), Request{
		Type:           domain.JobTypeImage,
		Prompt:         "logo on a cup",
		ReferenceImage: &domain.ReferenceImage{URL: srv.URL + "/assets/logo.png"},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(captured.Instances) != 1 {
		t.Fatalf("unexpected instances %+v", captured.Instances)
	}
	img := captured.Instances[0].Image
	if img == nil || string(img.BytesBase64Encoded) != "logo-bytes" || img.MIMEType != "image/jpeg" || img.GCSURI != "" {
		t.Fatalf("reference not attached to first instance: %+v", img)
	}
}

func TestGenerateDataReference(t *testing.T) {
	var captured predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		writeJSON(w, http.StatusOK, `{"predictions":[{"gcsUri":"gs://bucket/out.png"}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &recordingSleep{}, nil)
	_, err := c.Generate(context.Background(), Request{
		Type:           domain.JobTypeImage,
		Prompt:         "x",
		ReferenceImage: &domain.ReferenceImage{URL: "data:image/webp;base64,aGVsbG8="},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	img := captured.Instances[0].Image
	if img == nil || string(img.BytesBase64Encoded) != "hello" || img.MIMEType != "image/webp" {
		t.Fatalf("unexpected reference %+v", img)
	}
}

func TestGenerateRejectsUnusableReference(t *testing.T) {
	cases := map[string]struct {
		path string
		kind error
	}{
		"ftp scheme":      {path: "ftp://example.com/logo.png", kind: domain.ErrOperationFailed},
		"bad data uri":    {path: "data:image/png,raw", kind: domain.ErrOperationFailed},
		"missing file":    {path: "/assets/missing.png", kind: domain.ErrOperationFailed},
		"reference fails": {path: "/assets/broken.png", kind: domain.ErrNetwork},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var predicts int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/assets/missing.png":
					w.WriteHeader(http.StatusNotFound)
				case "/assets/broken.png":
					w.WriteHeader(http.StatusBadGateway)
				default:
					atomic.AddInt32(&predicts, 1)
					writeJSON(w, http.StatusOK, `{"predictions":[{"gcsUri":"gs://bucket/out.png"}]}`)
				}
			}))
			defer srv.Close()

			url := tc.path
			if strings.HasPrefix(url, "/") {
				url = srv.URL + url
			}
			tokens := &staticTokens{token: google.AccessToken{Value: "ya29.test"}}
			c := newTestClient(t, srv, &recordingSleep{}, func(o *Options) { o.Tokens = tokens })
			_, err := c.Generate(context.Background(), Request{
				Type:           domain.JobTypeImage,
				Prompt:         "x",
				ReferenceImage: &domain.ReferenceImage{URL: url},
			})
			if !errors.Is(err, tc.kind) {
				t.Fatalf("got %v want %v", err, tc.kind)
			}
			if atomic.LoadInt32(&predicts) != 0 || atomic.LoadInt32(&tokens.calls) != 0 {
				t.Fatalf("request must not be submitted when the reference cannot be loaded")
			}
		})
	}
}

func TestPublicURI(t *testing.T) {
	cases := map[string]string{
		"gs://bucket/a/b.png":       "https://storage.googleapis.com/bucket/a/b.png",
		"https://example.com/x.png": "https://example.com/x.png",
	}
	for in, want := range cases {
		if got := publicURI(in); got != want {
			t.Fatalf("publicURI(%q) = %q want %q", in, got, want)
		}
	}
}
