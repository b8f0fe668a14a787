package domain

// AssetKind enumerates asset types.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// GeneratedAsset represents the artifact produced by one completed job.
type GeneratedAsset struct {
	ID            string    `json:"id"`
	JobID         string    `json:"job_id"`
	Type          AssetKind `json:"type"`
	URL           string    `json:"url"`
	IsApproved    bool      `json:"is_approved"`
	IsFavorite    bool      `json:"is_favorite"`
	QualityScore  *float64  `json:"quality_score,omitempty"`
	QualityIssues []string  `json:"quality_issues"`
}

// Clone returns a copy that shares no slices or pointers with a.
func (a GeneratedAsset) Clone() GeneratedAsset {
	out := a
	if a.QualityScore != nil {
		score := *a.QualityScore
		out.QualityScore = &score
	}
	if a.QualityIssues != nil {
		out.QualityIssues = make([]string, len(a.QualityIssues))
		copy(out.QualityIssues, a.QualityIssues)
	}
	return out
}

// Caption is copy written for one asset.
type Caption struct {
	ID         string   `json:"id"`
	AssetID    string   `json:"asset_id"`
	Text       string   `json:"text"`
	Tone       string   `json:"tone"`
	Hashtags   []string `json:"hashtags"`
	IsSelected bool     `json:"is_selected"`
}

// Clone returns a copy that shares no slices with c.
func (c Caption) Clone() Caption {
	out := c
	if c.Hashtags != nil {
		out.Hashtags = make([]string, len(c.Hashtags))
		copy(out.Hashtags, c.Hashtags)
	}
	return out
}

// ExportPackage bundles assets for one platform.
type ExportPackage struct {
	ID          string   `json:"id"`
	Platform    string   `json:"platform"`
	AssetIDs    []string `json:"asset_ids"`
	DownloadURL string   `json:"download_url,omitempty"`
}

// Clone returns a copy that shares no slices with e.
func (e ExportPackage) Clone() ExportPackage {
	out := e
	if e.AssetIDs != nil {
		out.AssetIDs = make([]string, len(e.AssetIDs))
		copy(out.AssetIDs, e.AssetIDs)
	}
	return out
}
