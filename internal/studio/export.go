package studio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/workflow"
	"github.com/leavend/campaign-studio/pkg/zip"
)

const maxExportAssetBytes = 200 << 20

type manifest struct {
	CampaignID   string          `json:"campaign_id"`
	BusinessName string          `json:"business_name"`
	Platform     string          `json:"platform"`
	Strategy     string          `json:"strategy,omitempty"`
	Assets       []manifestAsset `json:"assets"`
}

type manifestAsset struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	URL      string   `json:"url,omitempty"`
	File     string   `json:"file,omitempty"`
	Caption  string   `json:"caption,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// ExportCampaign packages the approved assets for one platform into a zip
// archive. The export is recorded only once the archive is stored.
func (s *Service) ExportCampaign(ctx context.Context, campaignID, userID, platform string) (domain.ExportPackage, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return domain.ExportPackage{}, err
	}
	if s.files == nil || s.publicBaseURL == "" {
		return domain.ExportPackage{}, errors.New("studio: export storage is not configured")
	}
	st := sess.engine.State()
	if st.Stage != domain.StageExport {
		return domain.ExportPackage{}, fmt.Errorf("studio: export at %s: %w", st.Stage, domain.ErrStageMismatch)
	}
	approved := st.ApprovedAssets()
	if len(approved) == 0 {
		return domain.ExportPackage{}, fmt.Errorf("studio: export campaign %s: %w", campaignID, domain.ErrNothingToExport)
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		platform = "all"
	}

	pkg := domain.ExportPackage{ID: s.newID(), Platform: platform}
	for _, a := range approved {
		pkg.AssetIDs = append(pkg.AssetIDs, a.ID)
	}
	archive, err := s.buildArchive(ctx, st, platform, approved)
	if err != nil {
		sess.engine.Dispatch(workflow.SetError{Message: err.Error()})
		return domain.ExportPackage{}, err
	}
	key, err := s.files.Write(ctx, fmt.Sprintf("exports/%s/%s-%s.zip", campaignID, platform, pkg.ID), archive)
	if err != nil {
		sess.engine.Dispatch(workflow.SetError{Message: err.Error()})
		return domain.ExportPackage{}, fmt.Errorf("studio: store export: %w", err)
	}
	pkg.DownloadURL = s.publicBaseURL + "/" + key
	next := sess.engine.Dispatch(workflow.AddExport{Export: pkg})

	if err := s.exports.Upsert(ctx, campaignID, len(next.Exports)-1, pkg); err != nil {
		s.logger.Error().Err(err).Str("campaign_id", campaignID).Str("export_id", pkg.ID).Msg("studio: persist export failed")
	}
	s.logger.Info().
		Str("campaign_id", campaignID).
		Str("platform", platform).
		Int("assets", len(approved)).
		Msg("studio: export packaged")
	return pkg, nil
}

func (s *Service) buildArchive(ctx context.Context, st workflow.State, platform string, assets []domain.GeneratedAsset) ([]byte, error) {
	m := manifest{
		CampaignID:   st.CampaignID,
		BusinessName: st.Brief.BusinessName,
		Platform:     platform,
	}
	if sel, ok := st.SelectedStrategy(); ok {
		m.Strategy = sel.Title
	}

	var entries []zip.Entry
	for i, a := range assets {
		item := manifestAsset{ID: a.ID, Type: string(a.Type)}
		if c, ok := selectedCaption(st, a.ID); ok {
			item.Caption = c.Text
			item.Hashtags = c.Hashtags
		}
		data, mimeType, err := s.assetBytes(ctx, a.URL)
		if err != nil {
			s.logger.Warn().Err(err).Str("asset_id", a.ID).Msg("studio: export keeps asset as link")
			item.URL = a.URL
		} else {
			item.File = fmt.Sprintf("assets/%02d-%s%s", i+1, a.ID, extension(mimeType, a.Type))
			entries = append(entries, zip.Entry{Filename: item.File, Data: data})
		}
		if !strings.HasPrefix(a.URL, "data:") {
			item.URL = a.URL
		}
		m.Assets = append(m.Assets, item)
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("studio: encode manifest: %w", err)
	}
	entries = append([]zip.Entry{{Filename: "manifest.json", Data: raw}}, entries...)
	return zip.Archive(entries, s.now())
}

// assetBytes loads the media behind an asset URL: inline data URIs, files in
// the local store, or remote http(s) objects.
func (s *Service) assetBytes(ctx context.Context, url string) ([]byte, string, error) {
	if rest, ok := strings.CutPrefix(url, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", errors.New("unsupported data uri")
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode data uri: %w", err)
		}
		return data, strings.TrimSuffix(meta, ";base64"), nil
	}
	if key, ok := strings.CutPrefix(url, s.publicBaseURL+"/"); ok && s.publicBaseURL != "" {
		data, err := s.files.Read(ctx, key)
		return data, "", err
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, "", fmt.Errorf("unsupported asset url %q", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("download asset: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExportAssetBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read asset: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func selectedCaption(st workflow.State, assetID string) (domain.Caption, bool) {
	for _, c := range st.Captions {
		if c.AssetID == assetID && c.IsSelected {
			return c, true
		}
	}
	return domain.Caption{}, false
}

func extension(mimeType string, kind domain.AssetKind) string {
	switch strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	}
	if kind == domain.AssetKindVideo {
		return ".mp4"
	}
	return ".png"
}
