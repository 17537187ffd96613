package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/leadvett/backend/internal/auth"
	"github.com/leadvett/backend/internal/models"
)

// newTestRouter mounts the handler with a protected subrouter that trusts an
// X-Test-User header instead of a token.
func newTestRouter(svc *Service) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	protected := api.PathPrefix("").Subrouter()
	protected.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			userID, err := strconv.ParseInt(req.Header.Get("X-Test-User"), 10, 64)
			if err != nil {
				next.ServeHTTP(w, req)
				return
			}
			ctx := auth.WithUserID(req.Context(), userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(svc).RegisterRoutes(api, protected)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-Test-User", "1")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_FormLifecycle(t *testing.T) {
	store := newMemStore()
	h := newTestRouter(newTestService(store, &stubNarrator{}))

	rec := doJSON(t, h, http.MethodPost, "/api/v1/forms", validFormRequest(), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var form models.Form
	if err := json.NewDecoder(rec.Body).Decode(&form); err != nil {
		t.Fatalf("decode form: %v", err)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/intake/"+form.ShareLink.String(), nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("intake status = %d", rec.Code)
	}
	var public models.PublicForm
	json.NewDecoder(rec.Body).Decode(&public)
	if public.Name != form.Name || len(public.Questions) != len(testQuestions) {
		t.Errorf("public form = %+v", public)
	}

	submit := models.SubmitLeadRequest{
		LeadName:  "Sam",
		LeadEmail: "sam@example.com",
		Answers:   models.AnswerSet{"q1": "$10k", "q2": "ASAP"},
	}
	rec = doJSON(t, h, http.MethodPost, "/api/v1/intake/"+form.ShareLink.String()+"/submit", submit, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/forms/"+form.ID.String()+"/leads", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list leads status = %d", rec.Code)
	}
	var leads []models.LeadSummary
	json.NewDecoder(rec.Body).Decode(&leads)
	if len(leads) != 1 || leads[0].Badge == nil || *leads[0].Badge != models.BadgeGold {
		t.Errorf("leads = %+v, want one Gold lead", leads)
	}
}

func TestHandler_Errors(t *testing.T) {
	h := newTestRouter(newTestService(newMemStore(), &stubNarrator{}))

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		authed bool
		want   int
	}{
		{"unauthenticated create", http.MethodPost, "/api/v1/forms", validFormRequest(), false, http.StatusUnauthorized},
		{"invalid form", http.MethodPost, "/api/v1/forms", models.SaveFormRequest{}, true, http.StatusBadRequest},
		{"bad form id", http.MethodGet, "/api/v1/forms/not-a-uuid", nil, true, http.StatusBadRequest},
		{"missing form", http.MethodGet, "/api/v1/forms/" + uuid.NewString(), nil, true, http.StatusNotFound},
		{"unknown share link", http.MethodGet, "/api/v1/intake/" + uuid.NewString(), nil, false, http.StatusNotFound},
		{"missing lead", http.MethodPost, "/api/v1/leads/" + uuid.NewString() + "/reanalyze", nil, true, http.StatusNotFound},
		{"analyze without questions", http.MethodPost, "/api/v1/analyze-lead", map[string]interface{}{"answers": map[string]string{}}, false, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := doJSON(t, h, tt.method, tt.path, tt.body, tt.authed)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d (body %s)", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestHandler_AnalyzeLead(t *testing.T) {
	h := newTestRouter(newTestService(newMemStore(), &stubNarrator{}))

	body := models.AnalyzeLeadRequest{
		Questions: testQuestions,
		Answers:   models.AnswerSet{"q1": "$3k", "q2": "Not sure"},
	}
	rec := doJSON(t, h, http.MethodPost, "/api/v1/analyze-lead", body, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp models.AnalyzeLeadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Analysis == nil {
		t.Fatalf("resp = %+v", resp)
	}
	// 50 + 10 (mid-tier budget) - 10 (vague timeline)
	if resp.Analysis.BaseScore != 50 || resp.Analysis.Badge != models.BadgeSilver {
		t.Errorf("analysis = %s/%d, want Silver/50", resp.Analysis.Badge, resp.Analysis.BaseScore)
	}
	if len(resp.Analysis.Rules) != 2 {
		t.Errorf("rule_breakdown = %+v, want 2 rules", resp.Analysis.Rules)
	}
}

func TestHandler_FixPending(t *testing.T) {
	h := newTestRouter(newTestService(newMemStore(), &stubNarrator{}))

	rec := doJSON(t, h, http.MethodPost, "/api/v1/leads/fix-pending", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp models.FixPendingResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Success || resp.Message != "No pending leads found" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandler_FixPendingLeavesOtherAgencies(t *testing.T) {
	store := newMemStore()
	h := newTestRouter(newTestService(store, &stubNarrator{}))
	ctx := context.Background()

	mine := &models.Form{ID: uuid.New(), UserID: 1, ShareLink: uuid.New(), Schema: models.SchemaCustom, Questions: testQuestions}
	theirs := &models.Form{ID: uuid.New(), UserID: 2, ShareLink: uuid.New(), Schema: models.SchemaCustom, Questions: testQuestions}
	store.CreateForm(ctx, mine)
	store.CreateForm(ctx, theirs)
	seedPending(t, store, mine, "Alex")
	other := seedPending(t, store, theirs, "Morgan")[0]

	rec := doJSON(t, h, http.MethodPost, "/api/v1/leads/fix-pending", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.FixPendingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Total = %d, want 1", resp.Total)
	}
	for _, r := range resp.Results {
		if r.ID == other || r.Email == "morgan@example.com" {
			t.Errorf("response exposes another agency's lead: %+v", r)
		}
	}
	if store.leads[other].Verdict != nil {
		t.Error("another agency's pending lead was analyzed")
	}
}

func TestHandler_FixPendingUnauthorized(t *testing.T) {
	h := newTestRouter(newTestService(newMemStore(), &stubNarrator{}))
	rec := doJSON(t, h, http.MethodPost, "/api/v1/leads/fix-pending", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandler_BodyTooLarge(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &stubNarrator{})
	form, _ := svc.CreateForm(context.Background(), 1, validFormRequest())
	h := newTestRouter(svc)

	huge := `{"answers":{"q1":"` + strings.Repeat("a", maxBodyBytes) + `"},"questions":[]}`
	for _, path := range []string{"/api/v1/analyze-lead", "/api/v1/intake/" + form.ShareLink.String() + "/submit"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(huge))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("%s: status = %d, want 413", path, rec.Code)
		}
	}
	if len(store.leads) != 0 {
		t.Errorf("stored %d leads from an oversized body", len(store.leads))
	}
}
