package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/leadvett/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

// PendingLead is a lead without a verdict, joined with the form it was submitted to.
type PendingLead struct {
	Lead models.Lead
	Form models.Form
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Forms ───────────────────────────────────────────────

const formColumns = `id, user_id, name, description, share_link, schema, questions,
	reject_on_hard_floor, created_at, updated_at`

func (s *Store) CreateForm(ctx context.Context, form *models.Form) error {
	questions, err := json.Marshal(form.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO intake_forms (id, user_id, name, description, share_link, schema, questions,
		                           reject_on_hard_floor, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		form.ID, form.UserID, form.Name, form.Description, form.ShareLink, form.Schema,
		questions, form.RejectOnHardFloor, form.CreatedAt, form.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create form: %w", err)
	}
	return nil
}

func (s *Store) UpdateForm(ctx context.Context, form *models.Form) error {
	questions, err := json.Marshal(form.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE intake_forms
		 SET name = $1, description = $2, schema = $3, questions = $4,
		     reject_on_hard_floor = $5, updated_at = $6
		 WHERE id = $7 AND user_id = $8`,
		form.Name, form.Description, form.Schema, questions,
		form.RejectOnHardFloor, form.UpdatedAt, form.ID, form.UserID,
	)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetForm returns a form owned by userID.
func (s *Store) GetForm(ctx context.Context, userID int64, id uuid.UUID) (*models.Form, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM intake_forms WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	return scanForm(row)
}

func (s *Store) GetFormByShareLink(ctx context.Context, shareLink uuid.UUID) (*models.Form, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM intake_forms WHERE share_link = $1`,
		shareLink,
	)
	return scanForm(row)
}

func (s *Store) ListForms(ctx context.Context, userID int64) ([]models.Form, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+formColumns+` FROM intake_forms WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	forms := []models.Form{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *f)
	}
	return forms, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanForm(row rowScanner) (*models.Form, error) {
	var f models.Form
	var questions []byte
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Description, &f.ShareLink, &f.Schema,
		&questions, &f.RejectOnHardFloor, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan form: %w", err)
	}
	if err := json.Unmarshal(questions, &f.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions for form %s: %w", f.ID, err)
	}
	return &f, nil
}

// ── Leads ───────────────────────────────────────────────

const leadColumns = `l.id, l.form_id, l.lead_name, l.lead_email, l.answers, l.created_at,
	l.badge, l.base_score, l.badge_ceiling, l.confidence_score, l.confidence_level, l.action,
	l.summary, l.strengths, l.risks, l.dm_script, l.rule_breakdown, l.hard_rule_triggered,
	l.narrative_source, l.fallback_reason, l.analyzed_at`

func (s *Store) CreateLead(ctx context.Context, lead *models.Lead) error {
	answers, err := json.Marshal(lead.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lead_responses (id, form_id, lead_name, lead_email, answers, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		lead.ID, lead.FormID, lead.LeadName, lead.LeadEmail, answers, lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

// GetLead returns a lead whose form is owned by userID.
func (s *Store) GetLead(ctx context.Context, userID int64, id uuid.UUID) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+`
		 FROM lead_responses l
		 JOIN intake_forms f ON f.id = l.form_id
		 WHERE l.id = $1 AND f.user_id = $2`,
		id, userID,
	)
	return scanLead(row)
}

func (s *Store) ListLeadsByForm(ctx context.Context, formID uuid.UUID) ([]models.LeadSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_name, lead_email, badge, confidence_score, confidence_level, action, created_at
		 FROM lead_responses WHERE form_id = $1 ORDER BY created_at DESC`,
		formID,
	)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := []models.LeadSummary{}
	for rows.Next() {
		var ls models.LeadSummary
		var badge, band, action sql.NullString
		var confidence sql.NullInt64
		if err := rows.Scan(&ls.ID, &ls.LeadName, &ls.LeadEmail, &badge, &confidence,
			&band, &action, &ls.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead summary: %w", err)
		}
		if badge.Valid {
			b := models.Badge(badge.String)
			ls.Badge = &b
		}
		if confidence.Valid {
			c := int(confidence.Int64)
			ls.ConfidenceScore = &c
		}
		if band.Valid {
			cb := models.ConfidenceBand(band.String)
			ls.ConfidenceBand = &cb
		}
		if action.Valid {
			ls.Action = &action.String
		}
		leads = append(leads, ls)
	}
	return leads, rows.Err()
}

// AllOwners lists pending leads across every agency. Only operator tooling uses it.
const AllOwners int64 = 0

// ListPendingLeads returns the leads without a verdict on forms owned by userID,
// oldest first. Pass AllOwners to list them for every owner.
func (s *Store) ListPendingLeads(ctx context.Context, userID int64) ([]PendingLead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.form_id, l.lead_name, l.lead_email, l.answers, l.created_at,
		        f.user_id, f.schema, f.questions, f.reject_on_hard_floor
		 FROM lead_responses l
		 JOIN intake_forms f ON f.id = l.form_id
		 WHERE l.badge IS NULL AND ($1::bigint = 0 OR f.user_id = $1)
		 ORDER BY l.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending leads: %w", err)
	}
	defer rows.Close()

	var pending []PendingLead
	for rows.Next() {
		var p PendingLead
		var answers, questions []byte
		if err := rows.Scan(&p.Lead.ID, &p.Lead.FormID, &p.Lead.LeadName, &p.Lead.LeadEmail,
			&answers, &p.Lead.CreatedAt, &p.Form.UserID, &p.Form.Schema, &questions, &p.Form.RejectOnHardFloor); err != nil {
			return nil, fmt.Errorf("scan pending lead: %w", err)
		}
		if err := json.Unmarshal(answers, &p.Lead.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers for lead %s: %w", p.Lead.ID, err)
		}
		if err := json.Unmarshal(questions, &p.Form.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions for lead %s: %w", p.Lead.ID, err)
		}
		p.Form.ID = p.Lead.FormID
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// SaveVerdict stores the analysis for a lead, replacing any earlier one.
func (s *Store) SaveVerdict(ctx context.Context, leadID uuid.UUID, v *models.Verdict) error {
	strengths, err := json.Marshal(v.Strengths)
	if err != nil {
		return fmt.Errorf("marshal strengths: %w", err)
	}
	risks, err := json.Marshal(v.Risks)
	if err != nil {
		return fmt.Errorf("marshal risks: %w", err)
	}
	rules, err := json.Marshal(v.Rules)
	if err != nil {
		return fmt.Errorf("marshal rule breakdown: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE lead_responses
		 SET badge = $1, base_score = $2, badge_ceiling = $3, confidence_score = $4,
		     confidence_level = $5, action = $6, summary = $7, strengths = $8, risks = $9,
		     dm_script = $10, rule_breakdown = $11, hard_rule_triggered = $12,
		     narrative_source = $13, fallback_reason = $14, analyzed_at = $15
		 WHERE id = $16`,
		v.Badge, v.BaseScore, nullable(string(v.BadgeCeiling)), v.ConfidenceScore,
		v.ConfidenceBand, v.Action, v.Summary, strengths, risks,
		v.OutreachScript, rules, nullable(v.HardDisqualificationReason),
		v.NarrativeSource, nullable(v.FallbackReason), v.AnalyzedAt, leadID,
	)
	if err != nil {
		return fmt.Errorf("save verdict: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var l models.Lead
	var answers []byte
	var (
		badge, ceiling, band, action, summary, dmScript sql.NullString
		hardRule, source, fallbackReason                sql.NullString
		baseScore, confidence                           sql.NullInt64
		strengths, risks, rules                         []byte
		analyzedAt                                      sql.NullTime
	)
	err := row.Scan(&l.ID, &l.FormID, &l.LeadName, &l.LeadEmail, &answers, &l.CreatedAt,
		&badge, &baseScore, &ceiling, &confidence, &band, &action,
		&summary, &strengths, &risks, &dmScript, &rules, &hardRule,
		&source, &fallbackReason, &analyzedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	if err := json.Unmarshal(answers, &l.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers for lead %s: %w", l.ID, err)
	}

	if !badge.Valid {
		return &l, nil
	}

	v := &models.Verdict{
		Badge:                      models.Badge(badge.String),
		BaseScore:                  int(baseScore.Int64),
		BadgeCeiling:               models.BadgeCeiling(ceiling.String),
		ConfidenceScore:            int(confidence.Int64),
		ConfidenceBand:             models.ConfidenceBand(band.String),
		Action:                     action.String,
		Summary:                    summary.String,
		OutreachScript:             dmScript.String,
		HardDisqualificationReason: hardRule.String,
		NarrativeSource:            models.NarrativeSource(source.String),
		FallbackReason:             fallbackReason.String,
		AnalyzedAt:                 analyzedAt.Time,
	}
	if err := unmarshalOptional(strengths, &v.Strengths); err != nil {
		return nil, fmt.Errorf("unmarshal strengths for lead %s: %w", l.ID, err)
	}
	if err := unmarshalOptional(risks, &v.Risks); err != nil {
		return nil, fmt.Errorf("unmarshal risks for lead %s: %w", l.ID, err)
	}
	if err := unmarshalOptional(rules, &v.Rules); err != nil {
		return nil, fmt.Errorf("unmarshal rule breakdown for lead %s: %w", l.ID, err)
	}
	l.Verdict = v
	return &l, nil
}

func unmarshalOptional(data []byte, dst interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
