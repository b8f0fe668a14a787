package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/infra/google"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollAttempts = 36

	maxLoggedPayload  = 512
	maxErrorBody      = 8 << 10
	maxReferenceBytes = 20 << 20
)

// TokenSource hands out bearer tokens for the remote service.
type TokenSource interface {
	Token(ctx context.Context) (google.AccessToken, error)
}

// AssetStore persists inline media so it can be served by URL.
type AssetStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Options controls how the Vertex client is configured.
type Options struct {
	BaseURL         string
	Project         string
	Region          string
	ImageModel      string
	VideoModel      string
	Tokens          TokenSource
	HTTPClient      *http.Client
	PollInterval    time.Duration
	MaxPollAttempts int
	Sleep           func(ctx context.Context, d time.Duration) error
	Store           AssetStore
	PublicBaseURL   string
	Logger          *infra.Logger
}

// Client submits generation requests to Vertex AI publisher models and waits
// for long-running operations to finish.
type Client struct {
	baseURL         string
	project         string
	region          string
	imageModel      string
	videoModel      string
	tokens          TokenSource
	httpClient      *http.Client
	pollInterval    time.Duration
	maxPollAttempts int
	sleep           func(ctx context.Context, d time.Duration) error
	store           AssetStore
	publicBaseURL   string
	logger          *infra.Logger
}

// Request is one generation call.
type Request struct {
	JobID          string
	Type           domain.JobType
	Prompt         string
	Parameters     domain.JobParameters
	ReferenceImage *domain.ReferenceImage
}

// AssetResult is the normalized outcome of a generation call.
type AssetResult struct {
	URL      string
	MIMEType string
	Inline   bool
}

// NewClient constructs a Vertex client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.Tokens == nil {
		return nil, errors.New("genai: token source is required")
	}
	project := strings.TrimSpace(opts.Project)
	if project == "" {
		return nil, errors.New("genai: project is required")
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "us-central1"
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://" + region + "-aiplatform.googleapis.com/v1"
	}

	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "imagen-3.0-generate-002"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.0-generate-001"
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := opts.MaxPollAttempts
	if attempts <= 0 {
		attempts = DefaultMaxPollAttempts
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		baseURL:         baseURL,
		project:         project,
		region:          region,
		imageModel:      imageModel,
		videoModel:      videoModel,
		tokens:          opts.Tokens,
		httpClient:      client,
		pollInterval:    interval,
		maxPollAttempts: attempts,
		sleep:           sleep,
		store:           opts.Store,
		publicBaseURL:   strings.TrimRight(opts.PublicBaseURL, "/"),
		logger:          logger,
	}, nil
}

// Model returns the model used for the given job type.
func (c *Client) Model(t domain.JobType) string {
	if t == domain.JobTypeVideo {
		return c.videoModel
	}
	return c.imageModel
}

// Generate runs one request to completion. Images use the synchronous predict
// method and videos the long-running one; both response shapes are accepted
// from either method.
func (c *Client) Generate(ctx context.Context, req Request) (AssetResult, error) {
	if !req.Type.Valid() {
		return AssetResult{}, fmt.Errorf("genai: %w: %q", domain.ErrInvalidJobType, req.Type)
	}

	image, err := c.referenceImage(ctx, req.ReferenceImage)
	if err != nil {
		return AssetResult{}, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		var genErr *domain.GenerationError
		if errors.As(err, &genErr) {
			return AssetResult{}, err
		}
		return AssetResult{}, domain.NewGenerationError(domain.ErrAuth, "token", err)
	}

	method := "predict"
	if req.Type == domain.JobTypeVideo {
		method = "predictLongRunning"
	}

	var submitted operation
	raw, err := c.invoke(ctx, token, c.modelEndpoint(req.Type, method), buildPayload(req, image), &submitted)
	if err != nil {
		return AssetResult{}, err
	}

	if res, ok, err := c.extract(submitted, raw); ok || err != nil {
		if err != nil {
			return AssetResult{}, err
		}
		return c.normalize(ctx, req, res)
	}
	if submitted.Name == "" {
		return AssetResult{}, c.malformed("submit", raw, errors.New("response has neither result nor operation name"))
	}

	c.logger.Debug().
		Str("job_id", req.JobID).
		Str("operation", submitted.Name).
		Msg("genai: operation submitted")

	res, err := c.poll(ctx, token, req, submitted.Name)
	if err != nil {
		return AssetResult{}, err
	}
	return c.normalize(ctx, req, res)
}

func (c *Client) poll(ctx context.Context, token google.AccessToken, req Request, name string) (result, error) {
	endpoint := c.modelEndpoint(req.Type, "fetchPredictOperation")
	body := map[string]string{"operationName": name}

	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, domain.NewGenerationError(domain.ErrNetwork, "poll operation", err)
		}

		var op operation
		raw, err := c.invoke(ctx, token, endpoint, body, &op)
		if err != nil {
			return nil, err
		}
		res, ok, err := c.extract(op, raw)
		if err != nil {
			return nil, err
		}
		if ok {
			c.logger.Debug().
				Str("job_id", req.JobID).
				Str("operation", name).
				Int("attempt", attempt).
				Msg("genai: operation finished")
			return res, nil
		}
	}

	c.logger.Warn().
		Str("job_id", req.JobID).
		Str("operation", name).
		Int("attempts", c.maxPollAttempts).
		Msg("genai: operation did not finish within poll budget")
	return nil, domain.NewGenerationError(domain.ErrTimeout, "poll operation",
		fmt.Errorf("operation %s not done after %d polls", name, c.maxPollAttempts))
}

// extract reports ok=false when the payload carries no result yet.
func (c *Client) extract(op operation, raw []byte) (result, bool, error) {
	if op.Error != nil {
		return nil, true, operationError(op.Error)
	}
	if len(op.Predictions) > 0 {
		res, err := mediaResult(op.Predictions[0])
		if err != nil {
			return nil, true, c.malformed("extract prediction", raw, err)
		}
		return res, true, nil
	}
	if !op.Done {
		return nil, false, nil
	}
	if op.Response == nil {
		return nil, true, c.malformed("extract operation", raw, errors.New("operation done without response"))
	}
	media := op.Response.media()
	if len(media) == 0 {
		if op.Response.RAIMediaFilteredCount > 0 {
			return nil, true, domain.NewGenerationError(domain.ErrOperationFailed, "extract operation",
				fmt.Errorf("%d result(s) removed by safety filters", op.Response.RAIMediaFilteredCount))
		}
		return nil, true, c.malformed("extract operation", raw, errors.New("operation response has no media"))
	}
	res, err := mediaResult(media[0])
	if err != nil {
		return nil, true, c.malformed("extract operation", raw, err)
	}
	return res, true, nil
}

func (c *Client) modelEndpoint(t domain.JobType, method string) string {
	return fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:%s",
		c.baseURL,
		url.PathEscape(c.project),
		url.PathEscape(c.region),
		url.PathEscape(c.Model(t)),
		method,
	)
}

func (c *Client) invoke(ctx context.Context, token google.AccessToken, endpoint string, payload, out any) ([]byte, error) {
	op := endpointOp(endpoint)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("genai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("genai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Value)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewGenerationError(domain.ErrNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(op, resp.StatusCode, data)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewGenerationError(domain.ErrNetwork, op, fmt.Errorf("read response: %w", err))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return raw, c.malformed(op, raw, fmt.Errorf("decode response: %w", err))
	}
	return raw, nil
}

func (c *Client) malformed(op string, raw []byte, err error) error {
	payload := string(raw)
	if len(payload) > maxLoggedPayload {
		payload = payload[:maxLoggedPayload]
	}
	c.logger.Error().
		Err(err).
		Str("operation", op).
		Str("payload", payload).
		Msg("genai: malformed response")
	return domain.NewGenerationError(domain.ErrMalformedResponse, op, err)
}

func statusError(op string, status int, body []byte) error {
	var kind error
	switch status {
	case http.StatusUnauthorized:
		kind = domain.ErrAuth
	case http.StatusForbidden:
		kind = domain.ErrPermission
	case http.StatusTooManyRequests:
		kind = domain.ErrRateLimit
	case http.StatusRequestTimeout:
		kind = domain.ErrNetwork
	default:
		// 5xx is the service or a proxy failing; other 4xx means the
		// request itself was rejected and resending it will not help.
		kind = domain.ErrOperationFailed
		if status >= http.StatusInternalServerError {
			kind = domain.ErrNetwork
		}
	}
	msg := fmt.Sprintf("vertex status %d", status)
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	} else if text := strings.TrimSpace(string(body)); text != "" {
		msg = text
	}
	genErr := domain.NewGenerationError(kind, op, errors.New(msg))
	genErr.StatusCode = status
	return genErr
}

// operationError maps the status embedded in a finished operation.
func operationError(st *rpcStatus) error {
	kind := domain.ErrOperationFailed
	switch st.Code {
	case codeUnauthenticated:
		kind = domain.ErrAuth
	case codePermissionDenied:
		kind = domain.ErrPermission
	case codeResourceExhausted:
		kind = domain.ErrRateLimit
	}
	msg := strings.TrimSpace(st.Message)
	if msg == "" {
		msg = fmt.Sprintf("operation failed with code %d", st.Code)
	}
	return domain.NewGenerationError(kind, "operation", errors.New(msg))
}

// referenceImage resolves a caller-supplied reference into the inline or gs://
// form the predict endpoints accept. http(s) and data: references are loaded
// here; any other scheme fails the request.
func (c *Client) referenceImage(ctx context.Context, ref *domain.ReferenceImage) (*imageInput, error) {
	if ref == nil {
		return nil, nil
	}
	if len(ref.Data) > 0 {
		return &imageInput{BytesBase64Encoded: ref.Data, MIMEType: firstNonEmpty(ref.MIMEType, "image/png")}, nil
	}
	src := strings.TrimSpace(ref.URL)
	switch {
	case src == "":
		return nil, nil
	case strings.HasPrefix(src, "gs://"):
		return &imageInput{GCSURI: src, MIMEType: ref.MIMEType}, nil
	case strings.HasPrefix(src, "data:"):
		data, mimeType, err := decodeDataURI(src)
		if err != nil {
			return nil, domain.NewGenerationError(domain.ErrOperationFailed, "reference image", err)
		}
		return &imageInput{BytesBase64Encoded: data, MIMEType: firstNonEmpty(ref.MIMEType, mimeType, "image/png")}, nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		data, mimeType, err := c.download(ctx, src)
		if err != nil {
			return nil, err
		}
		return &imageInput{BytesBase64Encoded: data, MIMEType: firstNonEmpty(ref.MIMEType, mimeType, "image/png")}, nil
	default:
		return nil, domain.NewGenerationError(domain.ErrOperationFailed, "reference image",
			fmt.Errorf("unsupported reference image url %q", src))
	}
}

func (c *Client) download(ctx context.Context, src string) ([]byte, string, error) {
	const op = "download reference image"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", domain.NewGenerationError(domain.ErrOperationFailed, op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", domain.NewGenerationError(domain.ErrNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		kind := domain.ErrOperationFailed
		if resp.StatusCode >= http.StatusInternalServerError {
			kind = domain.ErrNetwork
		}
		genErr := domain.NewGenerationError(kind, op, fmt.Errorf("status %d from %s", resp.StatusCode, src))
		genErr.StatusCode = resp.StatusCode
		return nil, "", genErr
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReferenceBytes+1))
	if err != nil {
		return nil, "", domain.NewGenerationError(domain.ErrNetwork, op, err)
	}
	if len(data) == 0 {
		return nil, "", domain.NewGenerationError(domain.ErrOperationFailed, op, errors.New("empty body"))
	}
	if len(data) > maxReferenceBytes {
		return nil, "", domain.NewGenerationError(domain.ErrOperationFailed, op,
			fmt.Errorf("larger than %d bytes", maxReferenceBytes))
	}
	mimeType := ""
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && strings.HasPrefix(mt, "image/") {
		mimeType = mt
	}
	return data, mimeType, nil
}

func endpointOp(endpoint string) string {
	if i := strings.LastIndex(endpoint, ":"); i >= 0 {
		return endpoint[i+1:]
	}
	return "request"
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
