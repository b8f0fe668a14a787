package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/leavend/campaign-studio/internal/domain"
)

// result is either a reference to stored media or the media bytes themselves.
type result interface {
	mimeType() string
}

type uriResult struct {
	URI  string
	MIME string
}

type inlineResult struct {
	Data []byte
	MIME string
}

func (r uriResult) mimeType() string    { return r.MIME }
func (r inlineResult) mimeType() string { return r.MIME }

func mediaResult(m mediaItem) (result, error) {
	switch {
	case m.GCSURI != "":
		return uriResult{URI: m.GCSURI, MIME: m.MIMEType}, nil
	case m.URI != "":
		return uriResult{URI: m.URI, MIME: m.MIMEType}, nil
	case len(m.BytesBase64Encoded) > 0:
		return inlineResult{Data: m.BytesBase64Encoded, MIME: m.MIMEType}, nil
	default:
		return nil, errors.New("media item has neither uri nor bytes")
	}
}

// normalize turns either result shape into a URL the rest of the system can use.
func (c *Client) normalize(ctx context.Context, req Request, res result) (AssetResult, error) {
	switch r := res.(type) {
	case uriResult:
		return AssetResult{URL: publicURI(r.URI), MIMEType: r.MIME}, nil
	case inlineResult:
		mimeType := firstNonEmpty(r.MIME, defaultMIME(req))
		if c.store != nil && c.publicBaseURL != "" {
			key := storageKey(req, mimeType)
			stored, err := c.store.Write(ctx, key, r.Data)
			if err != nil {
				return AssetResult{}, fmt.Errorf("genai: store inline media: %w", err)
			}
			return AssetResult{URL: c.publicBaseURL + "/" + stored, MIMEType: mimeType, Inline: true}, nil
		}
		return AssetResult{
			URL:      "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Data),
			MIMEType: mimeType,
			Inline:   true,
		}, nil
	default:
		return AssetResult{}, fmt.Errorf("genai: unsupported result %T", res)
	}
}

// decodeDataURI reads a base64 data: URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, payload, found := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return nil, "", errors.New("unsupported data uri")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data uri: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty data uri")
	}
	return data, strings.TrimSuffix(meta, ";base64"), nil
}

// publicURI rewrites gs://bucket/key to its storage.googleapis.com form.
func publicURI(uri string) string {
	if rest, ok := strings.CutPrefix(uri, "gs://"); ok {
		return "https://storage.googleapis.com/" + rest
	}
	return uri
}

func defaultMIME(req Request) string {
	if req.Type == domain.JobTypeVideo {
		return "video/mp4"
	}
	return "image/png"
}

func storageKey(req Request, mimeType string) string {
	ext := ".bin"
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	switch mimeType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	case "video/mp4":
		ext = ".mp4"
	}
	id := req.JobID
	if id == "" {
		id = "asset"
	}
	return fmt.Sprintf("generated/%s/%s%s", req.Type, id, ext)
}
