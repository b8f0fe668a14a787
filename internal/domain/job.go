package domain

import "time"

// JobType enumerates supported generation job categories.
type JobType string

const (
	JobTypeImage JobType = "image"
	JobTypeVideo JobType = "video"
)

// Valid reports whether the job type is supported.
func (t JobType) Valid() bool {
	return t == JobTypeImage || t == JobTypeVideo
}

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further automatic transition happens from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ReferenceImage is an optional image the remote service conditions on.
type ReferenceImage struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
	URL      string `json:"url,omitempty"`
}

// JobParameters are the knobs sent with a generation request. A nil
// GenerateAudio means the caller left it to the configured default.
type JobParameters struct {
	DurationSeconds int             `json:"duration_seconds,omitempty"`
	AspectRatio     string          `json:"aspect_ratio,omitempty"`
	Resolution      string          `json:"resolution,omitempty"`
	GenerateAudio   *bool           `json:"generate_audio,omitempty"`
	ReferenceImage  *ReferenceImage `json:"reference_image,omitempty"`
}

// GenerationJob encapsulates the lifecycle of one image/video generation.
// ResultURL is set only when completed, ErrorMessage only when failed.
type GenerationJob struct {
	ID           string        `json:"id"`
	Type         JobType       `json:"job_type"`
	Status       JobStatus     `json:"status"`
	Prompt       string        `json:"prompt"`
	Parameters   JobParameters `json:"parameters"`
	Progress     int           `json:"progress"`
	RetryCount   int           `json:"retry_count"`
	MaxRetries   int           `json:"max_retries"`
	ResultURL    string        `json:"result_url,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// Clone returns a copy that shares no pointers with j.
func (j GenerationJob) Clone() GenerationJob {
	out := j
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.Parameters.GenerateAudio != nil {
		audio := *j.Parameters.GenerateAudio
		out.Parameters.GenerateAudio = &audio
	}
	if j.Parameters.ReferenceImage != nil {
		ref := *j.Parameters.ReferenceImage
		out.Parameters.ReferenceImage = &ref
	}
	return out
}
