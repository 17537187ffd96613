package leads

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leadvett/backend/internal/cache"
	"github.com/leadvett/backend/internal/config"
	"github.com/leadvett/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

const defaultFixPendingConcurrency = 4

// LeadStore is the persistence the service needs. *Store implements it.
type LeadStore interface {
	CreateForm(ctx context.Context, form *models.Form) error
	UpdateForm(ctx context.Context, form *models.Form) error
	GetForm(ctx context.Context, userID int64, id uuid.UUID) (*models.Form, error)
	GetFormByShareLink(ctx context.Context, shareLink uuid.UUID) (*models.Form, error)
	ListForms(ctx context.Context, userID int64) ([]models.Form, error)
	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLead(ctx context.Context, userID int64, id uuid.UUID) (*models.Lead, error)
	ListLeadsByForm(ctx context.Context, formID uuid.UUID) ([]models.LeadSummary, error)
	ListPendingLeads(ctx context.Context, userID int64) ([]PendingLead, error)
	SaveVerdict(ctx context.Context, leadID uuid.UUID, v *models.Verdict) error
}

// ValidationError lists everything wrong with a form definition or a submission.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

type Service struct {
	store       LeadStore
	analyzer    *Analyzer
	forms       cache.FormCache
	concurrency int
	now         func() time.Time
}

func NewService(store LeadStore, analyzer *Analyzer, forms cache.FormCache) *Service {
	if forms == nil {
		forms = cache.NewFormCache(nil)
	}
	return &Service{
		store:       store,
		analyzer:    analyzer,
		forms:       forms,
		concurrency: config.GetEnvInt("FIX_PENDING_CONCURRENCY", defaultFixPendingConcurrency),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetConcurrency overrides how many pending leads FixPending analyzes at once.
func (s *Service) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// ── Forms ───────────────────────────────────────────────

func (s *Service) CreateForm(ctx context.Context, userID int64, req models.SaveFormRequest) (*models.Form, error) {
	req = normalizeFormRequest(req)
	if err := ValidateForm(req); err != nil {
		return nil, err
	}

	now := s.now()
	form := &models.Form{
		ID:                uuid.New(),
		UserID:            userID,
		Name:              req.Name,
		Description:       req.Description,
		ShareLink:         uuid.New(),
		Schema:            req.Schema,
		Questions:         req.Questions,
		RejectOnHardFloor: req.RejectOnHardFloor,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateForm(ctx, form); err != nil {
		return nil, err
	}

	log.Printf("Form created: id=%s user=%d schema=%s questions=%d", form.ID, userID, form.Schema, len(form.Questions))
	return form, nil
}

func (s *Service) UpdateForm(ctx context.Context, userID int64, id uuid.UUID, req models.SaveFormRequest) (*models.Form, error) {
	form, err := s.store.GetForm(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	req = normalizeFormRequest(req)
	if err := ValidateForm(req); err != nil {
		return nil, err
	}

	form.Name = req.Name
	form.Description = req.Description
	form.Schema = req.Schema
	form.Questions = req.Questions
	form.RejectOnHardFloor = req.RejectOnHardFloor
	form.UpdatedAt = s.now()

	if err := s.store.UpdateForm(ctx, form); err != nil {
		return nil, err
	}
	if err := s.forms.Invalidate(ctx, form.ShareLink); err != nil {
		log.Printf("WARN: failed to invalidate cached form %s: %v", form.ShareLink, err)
	}
	return form, nil
}

func (s *Service) GetForm(ctx context.Context, userID int64, id uuid.UUID) (*models.Form, error) {
	return s.store.GetForm(ctx, userID, id)
}

func (s *Service) ListForms(ctx context.Context, userID int64) ([]models.Form, error) {
	return s.store.ListForms(ctx, userID)
}

func (s *Service) ListFormLeads(ctx context.Context, userID int64, formID uuid.UUID) ([]models.LeadSummary, error) {
	if _, err := s.store.GetForm(ctx, userID, formID); err != nil {
		return nil, err
	}
	return s.store.ListLeadsByForm(ctx, formID)
}

// FormByShareLink serves public intake lookups from the cache when possible.
func (s *Service) FormByShareLink(ctx context.Context, shareLink uuid.UUID) (*models.Form, error) {
	cached, err := s.forms.Get(ctx, shareLink)
	if err != nil {
		log.Printf("WARN: form cache read failed for %s: %v", shareLink, err)
	}
	if cached != nil {
		return cached, nil
	}

	form, err := s.store.GetFormByShareLink(ctx, shareLink)
	if err != nil {
		return nil, err
	}
	if err := s.forms.Set(ctx, form); err != nil {
		log.Printf("WARN: form cache write failed for %s: %v", shareLink, err)
	}
	return form, nil
}

func normalizeFormRequest(req models.SaveFormRequest) models.SaveFormRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Schema == "" {
		req.Schema = models.SchemaCustom
	}
	if req.Schema == models.SchemaFixed {
		req.Questions = nil
	}
	req.Questions = append([]models.Question(nil), req.Questions...)
	for i := range req.Questions {
		req.Questions[i].ID = strings.TrimSpace(req.Questions[i].ID)
		req.Questions[i].Label = strings.TrimSpace(req.Questions[i].Label)
	}
	return req
}

// ValidateForm checks a form definition before it is stored.
func ValidateForm(req models.SaveFormRequest) error {
	var errs []string
	if req.Name == "" {
		errs = append(errs, "name is required")
	}
	if req.Schema != models.SchemaCustom && req.Schema != models.SchemaFixed {
		errs = append(errs, fmt.Sprintf("schema must be '%s' or '%s'", models.SchemaCustom, models.SchemaFixed))
	}

	seen := make(map[string]bool, len(req.Questions))
	for i, q := range req.Questions {
		switch {
		case q.ID == "":
			errs = append(errs, fmt.Sprintf("question %d: id is required", i+1))
		case seen[q.ID]:
			errs = append(errs, fmt.Sprintf("question %d: duplicate id %q", i+1, q.ID))
		}
		seen[q.ID] = true

		if q.Label == "" {
			errs = append(errs, fmt.Sprintf("question %d: question text is required", i+1))
		}
		if !models.ValidQuestionKinds[q.Kind] {
			errs = append(errs, fmt.Sprintf("question %d: invalid type %q", i+1, q.Kind))
		}
		if q.Kind == models.KindSingleChoice && len(q.Choices) < 2 {
			errs = append(errs, fmt.Sprintf("question %d: single_choice needs at least 2 options", i+1))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ValidateAnswers checks a submission against the form's questions: required
// questions must be answered and choice answers must be one of the options.
func ValidateAnswers(questions []models.Question, answers models.AnswerSet) error {
	var errs []string
	for _, q := range questions {
		answer := strings.TrimSpace(answers[q.ID])
		if answer == "" {
			if q.Required {
				errs = append(errs, fmt.Sprintf("%q is required", q.Label))
			}
			continue
		}
		if q.Kind == models.KindSingleChoice && !containsChoice(q.Choices, answer) {
			errs = append(errs, fmt.Sprintf("%q must be one of: %s", q.Label, strings.Join(q.Choices, ", ")))
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func containsChoice(choices []string, answer string) bool {
	for _, c := range choices {
		if c == answer {
			return true
		}
	}
	return false
}

// ── Leads ───────────────────────────────────────────────

// SubmitLead stores a prospect's answers and analyzes them. A lead whose analysis
// or verdict write fails is still stored and left for FixPending.
func (s *Service) SubmitLead(ctx context.Context, shareLink uuid.UUID, req models.SubmitLeadRequest) (*models.Lead, error) {
	form, err := s.FormByShareLink(ctx, shareLink)
	if err != nil {
		return nil, err
	}

	if err := ValidateAnswers(form.ScoringQuestions(), req.Answers); err != nil {
		return nil, err
	}

	lead := &models.Lead{
		ID:        uuid.New(),
		FormID:    form.ID,
		LeadName:  strings.TrimSpace(req.LeadName),
		LeadEmail: strings.TrimSpace(strings.ToLower(req.LeadEmail)),
		Answers:   req.Answers,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		return nil, err
	}

	verdict, err := s.analyzer.Analyze(ctx, InputForForm(form, lead.Answers))
	if err != nil {
		log.Printf("WARN: lead %s left pending: %v", lead.ID, err)
		return lead, nil
	}
	if err := s.store.SaveVerdict(ctx, lead.ID, verdict); err != nil {
		log.Printf("WARN: lead %s left pending: %v", lead.ID, err)
		return lead, nil
	}
	lead.Verdict = verdict
	return lead, nil
}

func (s *Service) GetLead(ctx context.Context, userID int64, id uuid.UUID) (*models.Lead, error) {
	return s.store.GetLead(ctx, userID, id)
}

// Reanalyze replaces a lead's verdict with a fresh analysis against the form's
// current questions.
func (s *Service) Reanalyze(ctx context.Context, userID int64, id uuid.UUID) (*models.Lead, error) {
	lead, err := s.store.GetLead(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	form, err := s.store.GetForm(ctx, userID, lead.FormID)
	if err != nil {
		return nil, fmt.Errorf("load form for lead %s: %w", id, err)
	}

	verdict, err := s.analyzer.Analyze(ctx, InputForForm(form, lead.Answers))
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveVerdict(ctx, lead.ID, verdict); err != nil {
		return nil, err
	}
	lead.Verdict = verdict
	return lead, nil
}

// AnalyzeAnswers scores a submission that is not stored anywhere.
func (s *Service) AnalyzeAnswers(ctx context.Context, req models.AnalyzeLeadRequest) (*models.Verdict, error) {
	if req.Answers == nil || req.Questions == nil {
		return nil, &ValidationError{Errors: []string{"Missing answers or questions"}}
	}
	log.Printf("Analyzing lead with %d custom questions", len(req.Questions))
	return s.analyzer.Analyze(ctx, AnalyzeInput{Questions: req.Questions, Answers: req.Answers})
}

// FixPending analyzes the leads without a verdict on forms owned by userID.
// Per-lead failures are reported in the results and never abort the batch.
func (s *Service) FixPending(ctx context.Context, userID int64) (*models.FixPendingResponse, error) {
	if userID == AllOwners {
		return nil, fmt.Errorf("fix pending: missing owner")
	}
	return s.fixPending(ctx, userID)
}

// FixAllPending is FixPending across every agency, for operator tooling.
func (s *Service) FixAllPending(ctx context.Context) (*models.FixPendingResponse, error) {
	return s.fixPending(ctx, AllOwners)
}

func (s *Service) fixPending(ctx context.Context, userID int64) (*models.FixPendingResponse, error) {
	pending, err := s.store.ListPendingLeads(ctx, userID)
	if err != nil {
		return nil, err
	}

	log.Printf("Found %d pending leads (owner=%d)", len(pending), userID)
	if len(pending) == 0 {
		return &models.FixPendingResponse{
			Success: true,
			Message: "No pending leads found",
			Results: []models.FixPendingResult{},
		}, nil
	}

	results := make([]models.FixPendingResult, len(pending))
	var mu sync.Mutex
	successful := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range pending {
		p := pending[i]
		g.Go(func() error {
			r := s.fixOne(gctx, p)
			mu.Lock()
			results[i] = r
			if r.Success {
				successful++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := len(pending) - successful
	return &models.FixPendingResponse{
		Success:    true,
		Message:    fmt.Sprintf("Processed %d leads: %d successful, %d failed", len(pending), successful, failed),
		Total:      len(pending),
		Successful: successful,
		Failed:     failed,
		Results:    results,
	}, nil
}

func (s *Service) fixOne(ctx context.Context, p PendingLead) models.FixPendingResult {
	result := models.FixPendingResult{
		ID:    p.Lead.ID,
		Name:  p.Lead.LeadName,
		Email: p.Lead.LeadEmail,
	}

	questions := p.Form.ScoringQuestions()
	if len(questions) == 0 {
		log.Printf("WARN: no questions found for lead %s", p.Lead.ID)
		result.Error = "No form questions available"
		return result
	}

	verdict, err := s.analyzer.Analyze(ctx, InputForForm(&p.Form, p.Lead.Answers))
	if err != nil {
		log.Printf("WARN: analysis failed for lead %s: %v", p.Lead.ID, err)
		result.Error = err.Error()
		return result
	}
	if err := s.store.SaveVerdict(ctx, p.Lead.ID, verdict); err != nil {
		log.Printf("WARN: update failed for lead %s: %v", p.Lead.ID, err)
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Badge = verdict.Badge
	result.Confidence = verdict.ConfidenceScore
	result.Action = verdict.Action
	return result
}

// IsNotFound reports whether err means the requested row does not exist or is
// not visible to the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
