package genai

import (
	"strings"

	"github.com/leavend/campaign-studio/internal/domain"
)

// gRPC status codes carried in operation errors.
const (
	codePermissionDenied  = 7
	codeResourceExhausted = 8
	codeUnauthenticated   = 16
)

type predictRequest struct {
	Instances  []instance `json:"instances"`
	Parameters parameters `json:"parameters"`
}

type instance struct {
	Prompt string      `json:"prompt"`
	Image  *imageInput `json:"image,omitempty"`
}

type imageInput struct {
	BytesBase64Encoded []byte `json:"bytesBase64Encoded,omitempty"`
	GCSURI             string `json:"gcsUri,omitempty"`
	MIMEType           string `json:"mimeType,omitempty"`
}

type parameters struct {
	SampleCount     int    `json:"sampleCount"`
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
	GenerateAudio   *bool  `json:"generateAudio,omitempty"`
}

type operation struct {
	Name        string             `json:"name"`
	Done        bool               `json:"done"`
	Error       *rpcStatus         `json:"error,omitempty"`
	Response    *operationResponse `json:"response,omitempty"`
	Predictions []mediaItem        `json:"predictions,omitempty"`
}

type rpcStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type operationResponse struct {
	Videos                []mediaItem `json:"videos,omitempty"`
	GeneratedSamples      []sample    `json:"generatedSamples,omitempty"`
	Predictions           []mediaItem `json:"predictions,omitempty"`
	RAIMediaFilteredCount int         `json:"raiMediaFilteredCount,omitempty"`
}

type sample struct {
	Video *mediaItem `json:"video,omitempty"`
	Image *mediaItem `json:"image,omitempty"`
}

// mediaItem is one generated file, either referenced or inline.
type mediaItem struct {
	GCSURI             string `json:"gcsUri,omitempty"`
	URI                string `json:"uri,omitempty"`
	BytesBase64Encoded []byte `json:"bytesBase64Encoded,omitempty"`
	MIMEType           string `json:"mimeType,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

func (r *operationResponse) media() []mediaItem {
	if len(r.Videos) > 0 {
		return r.Videos
	}
	if len(r.Predictions) > 0 {
		return r.Predictions
	}
	var out []mediaItem
	for _, s := range r.GeneratedSamples {
		switch {
		case s.Video != nil:
			out = append(out, *s.Video)
		case s.Image != nil:
			out = append(out, *s.Image)
		}
	}
	return out
}

// buildPayload puts the resolved reference image, if any, on the first
// instance.
func buildPayload(req Request, image *imageInput) predictRequest {
	inst := instance{Prompt: strings.TrimSpace(req.Prompt), Image: image}

	p := req.Parameters
	params := parameters{
		SampleCount: 1,
		AspectRatio: p.AspectRatio,
	}
	if req.Type == domain.JobTypeVideo {
		audio := p.GenerateAudio != nil && *p.GenerateAudio
		params.DurationSeconds = p.DurationSeconds
		params.Resolution = p.Resolution
		params.GenerateAudio = &audio
	}
	return predictRequest{Instances: []instance{inst}, Parameters: params}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
