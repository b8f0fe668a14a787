// Package studio exposes the campaign workflow operations. It keeps one
// workflow engine per open campaign and routes every change through it.
package studio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/jobs"
	"github.com/leavend/campaign-studio/internal/providers/prompt"
	"github.com/leavend/campaign-studio/internal/workflow"
)

// FileStore stores generated media and export archives.
type FileStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
}

// Options wires a Service.
type Options struct {
	Campaigns domain.CampaignRepository
	Jobs      domain.JobRepository
	Assets    domain.AssetRepository
	Captions  domain.CaptionRepository
	Exports   domain.ExportRepository

	Manager    *jobs.Manager
	Prompts    *prompt.Builder
	Strategist *prompt.StaticStrategist

	Files         FileStore
	PublicBaseURL string
	HTTPClient    *http.Client

	NewID  func() string
	Now    func() time.Time
	Logger *infra.Logger
}

// Service implements the inbound campaign operations.
type Service struct {
	campaigns domain.CampaignRepository
	jobRepo   domain.JobRepository
	assets    domain.AssetRepository
	captions  domain.CaptionRepository
	exports   domain.ExportRepository

	manager    *jobs.Manager
	prompts    *prompt.Builder
	strategist *prompt.StaticStrategist

	files         FileStore
	publicBaseURL string
	httpClient    *http.Client

	newID  func() string
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	batches  sync.WaitGroup
}

type session struct {
	engine  *workflow.Engine
	running bool
}

func NewService(opts Options) (*Service, error) {
	if opts.Campaigns == nil || opts.Jobs == nil || opts.Assets == nil || opts.Captions == nil || opts.Exports == nil {
		return nil, fmt.Errorf("studio: all repositories are required")
	}
	if opts.Manager == nil {
		return nil, fmt.Errorf("studio: job manager is required")
	}
	s := &Service{
		campaigns:     opts.Campaigns,
		jobRepo:       opts.Jobs,
		assets:        opts.Assets,
		captions:      opts.Captions,
		exports:       opts.Exports,
		manager:       opts.Manager,
		prompts:       opts.Prompts,
		strategist:    opts.Strategist,
		files:         opts.Files,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		httpClient:    opts.HTTPClient,
		newID:         opts.NewID,
		now:           opts.Now,
		logger:        zerolog.New(io.Discard),
		sessions:      make(map[string]*session),
	}
	if s.prompts == nil {
		s.prompts = prompt.NewBuilder()
	}
	if s.strategist == nil {
		s.strategist = prompt.NewStaticStrategist()
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Logger != nil {
		s.logger = *opts.Logger
	}
	return s, nil
}

// CreateCampaign starts a campaign at the brief stage and stores its record.
func (s *Service) CreateCampaign(ctx context.Context, userID, name string, brief *domain.BriefPatch) (workflow.State, error) {
	st := workflow.NewState(s.newID())
	st.UserID = userID
	st.Name = strings.TrimSpace(name)
	if brief != nil {
		st = workflow.Reduce(st, workflow.MergeBrief{Patch: *brief})
	}
	if st.Name == "" {
		st.Name = st.Brief.BusinessName
	}
	if err := s.campaigns.Save(ctx, workflow.Serialize(st)); err != nil {
		return workflow.State{}, fmt.Errorf("studio: save new campaign: %w", err)
	}

	s.mu.Lock()
	s.sessions[st.CampaignID] = &session{engine: workflow.NewEngine(st, &s.logger)}
	s.mu.Unlock()

	s.logger.Info().Str("campaign_id", st.CampaignID).Str("user_id", userID).Msg("studio: campaign created")
	return st, nil
}

// State returns the current state of a campaign, loading it when needed.
func (s *Service) State(ctx context.Context, campaignID, userID string) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	return sess.engine.State(), nil
}

// UpdateBrief merges a partial brief.
func (s *Service) UpdateBrief(ctx context.Context, campaignID, userID string, patch domain.BriefPatch) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	return sess.engine.Dispatch(workflow.MergeBrief{Patch: patch}), nil
}

// SuggestStrategies replaces the strategy list with fresh drafts for the brief.
func (s *Service) SuggestStrategies(ctx context.Context, campaignID, userID string) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	st := sess.engine.State()
	if st.Stage != domain.StageStrategy {
		return st, fmt.Errorf("studio: suggest strategies at %s: %w", st.Stage, domain.ErrStageMismatch)
	}
	return sess.engine.Dispatch(workflow.ReplaceStrategies{Strategies: s.strategist.Strategies(st.Brief)}), nil
}

// ReplaceStrategies stores a caller-provided strategy list. Missing ids are assigned.
func (s *Service) ReplaceStrategies(ctx context.Context, campaignID, userID string, list []domain.CreativeStrategy) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	out := make([]domain.CreativeStrategy, len(list))
	copy(out, list)
	for i := range out {
		if strings.TrimSpace(out[i].ID) == "" {
			out[i].ID = s.newID()
		}
	}
	return sess.engine.Dispatch(workflow.ReplaceStrategies{Strategies: out}), nil
}

// SelectStrategy marks one strategy as the chosen direction.
func (s *Service) SelectStrategy(ctx context.Context, campaignID, userID, strategyID string) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	if !hasStrategy(sess.engine.State(), strategyID) {
		return sess.engine.State(), fmt.Errorf("studio: strategy %s: %w", strategyID, domain.ErrNotFound)
	}
	return sess.engine.Dispatch(workflow.SelectStrategy{ID: strategyID}), nil
}

// RefineStrategy edits a strategy while its direction is still being shaped.
func (s *Service) RefineStrategy(ctx context.Context, campaignID, userID, strategyID string, patch domain.StrategyPatch) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	st := sess.engine.State()
	if st.Stage != domain.StageStrategy && st.Stage != domain.StageConcept {
		return st, fmt.Errorf("studio: refine strategy at %s: %w", st.Stage, domain.ErrStageMismatch)
	}
	if !hasStrategy(st, strategyID) {
		return st, fmt.Errorf("studio: strategy %s: %w", strategyID, domain.ErrNotFound)
	}
	return sess.engine.Dispatch(workflow.RefineStrategy{ID: strategyID, Patch: patch}), nil
}

// AdvanceStage moves forward when the current stage's guard holds. The
// returned bool reports whether the stage changed.
func (s *Service) AdvanceStage(ctx context.Context, campaignID, userID string) (workflow.State, bool, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, false, err
	}
	before := sess.engine.State().Stage
	next := sess.engine.AdvanceStage()
	return next, next.Stage != before, nil
}

// PreviousStage moves back one stage.
func (s *Service) PreviousStage(ctx context.Context, campaignID, userID string) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	return sess.engine.PreviousStage(), nil
}

// GoToStage jumps directly to stage without checking guards.
func (s *Service) GoToStage(ctx context.Context, campaignID, userID string, stage domain.WorkflowStage) (workflow.State, error) {
	if !stage.Valid() {
		return workflow.State{}, fmt.Errorf("studio: %w: %q", domain.ErrUnknownStage, stage)
	}
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	return sess.engine.GoToStage(stage), nil
}

// ApproveAsset sets or clears the approval flag of an asset.
func (s *Service) ApproveAsset(ctx context.Context, campaignID, userID, assetID string, approved bool) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	if _, ok := sess.engine.State().Asset(assetID); !ok {
		return sess.engine.State(), fmt.Errorf("studio: asset %s: %w", assetID, domain.ErrNotFound)
	}
	return sess.engine.Dispatch(workflow.ApproveAsset{ID: assetID, Approved: approved}), nil
}

// FavoriteAsset sets or clears the favorite flag of an asset.
func (s *Service) FavoriteAsset(ctx context.Context, campaignID, userID, assetID string, favorite bool) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	if _, ok := sess.engine.State().Asset(assetID); !ok {
		return sess.engine.State(), fmt.Errorf("studio: asset %s: %w", assetID, domain.ErrNotFound)
	}
	return sess.engine.Dispatch(workflow.FavoriteAsset{ID: assetID, Favorite: favorite}), nil
}

// ReviewAsset records a quality score and the issues found on an asset.
func (s *Service) ReviewAsset(ctx context.Context, campaignID, userID, assetID string, score *float64, issues []string) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	if _, ok := sess.engine.State().Asset(assetID); !ok {
		return sess.engine.State(), fmt.Errorf("studio: asset %s: %w", assetID, domain.ErrNotFound)
	}
	return sess.engine.Dispatch(workflow.SetAssetQuality{ID: assetID, Score: score, Issues: issues}), nil
}

// CaptionInput describes a caption to add. An empty Text asks for a drafted caption.
type CaptionInput struct {
	AssetID  string   `json:"asset_id"`
	Text     string   `json:"text"`
	Tone     string   `json:"tone"`
	Hashtags []string `json:"hashtags"`
	Selected bool     `json:"is_selected"`
}

// AddCaption attaches a caption to an asset.
func (s *Service) AddCaption(ctx context.Context, campaignID, userID string, in CaptionInput) (domain.Caption, workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return domain.Caption{}, workflow.State{}, err
	}
	st := sess.engine.State()
	if _, ok := st.Asset(in.AssetID); !ok {
		return domain.Caption{}, st, fmt.Errorf("studio: asset %s: %w", in.AssetID, domain.ErrNotFound)
	}

	var c domain.Caption
	if strings.TrimSpace(in.Text) == "" {
		var strategy *domain.CreativeStrategy
		if sel, ok := st.SelectedStrategy(); ok {
			strategy = &sel
		}
		c = s.strategist.Caption(st.Brief, strategy, in.AssetID, in.Tone)
	} else {
		c = domain.Caption{
			ID:       s.newID(),
			AssetID:  in.AssetID,
			Text:     strings.TrimSpace(in.Text),
			Tone:     strings.TrimSpace(in.Tone),
			Hashtags: append([]string{}, in.Hashtags...),
		}
	}
	c.IsSelected = in.Selected
	next := sess.engine.Dispatch(workflow.AddCaption{Caption: c})
	return c, next, nil
}

// SelectCaption makes captionID the selected caption of assetID.
func (s *Service) SelectCaption(ctx context.Context, campaignID, userID, assetID, captionID string) (workflow.State, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return workflow.State{}, err
	}
	st := sess.engine.State()
	found := false
	for _, c := range st.Captions {
		if c.ID == captionID && c.AssetID == assetID {
			found = true
			break
		}
	}
	if !found {
		return st, fmt.Errorf("studio: caption %s for asset %s: %w", captionID, assetID, domain.ErrNotFound)
	}
	return sess.engine.Dispatch(workflow.SelectCaption{AssetID: assetID, CaptionID: captionID}), nil
}

// Wait blocks until every running generation batch has finished or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.batches.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// session returns the open engine for a campaign, loading it from storage on
// first access, and checks that userID may use it.
func (s *Service) session(ctx context.Context, campaignID, userID string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[campaignID]
	s.mu.Unlock()
	if !ok {
		st, err := s.loadState(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if existing, ok := s.sessions[campaignID]; ok {
			sess = existing
		} else {
			sess = &session{engine: workflow.NewEngine(st, &s.logger)}
			s.sessions[campaignID] = sess
		}
		s.mu.Unlock()
	}
	if err := authorize(sess.engine.State(), userID); err != nil {
		return nil, err
	}
	return sess, nil
}

func authorize(st workflow.State, userID string) error {
	if st.UserID != "" && userID != "" && st.UserID != userID {
		return fmt.Errorf("studio: campaign %s: %w", st.CampaignID, domain.ErrForbidden)
	}
	return nil
}

func hasStrategy(st workflow.State, id string) bool {
	for _, sg := range st.Strategies {
		if sg.ID == id {
			return true
		}
	}
	return false
}
