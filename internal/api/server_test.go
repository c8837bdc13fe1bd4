package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"careerhub/internal/model"
	"careerhub/internal/storage"
)

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestHome(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubStore{}, nil)
	w := doRequest(t, h, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := decodeMap(t, w); resp["apiVersion"] != "v1.0" {
		t.Fatalf("expected apiVersion in greeting, got %v", resp)
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubStore{}, nil)
	w := doRequest(t, h, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
	if resp := decodeMap(t, w); resp["error"] != "not_found" {
		t.Fatalf("expected not_found error body, got %v", resp)
	}
}

func TestCreateJob(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	h := NewHandler(st, nil)

	body := map[string]any{
		"title":        "Backend Engineer",
		"company":      map[string]any{"name": "Acme"},
		"industry":     map[string]any{"name": "Technology"},
		"posting_date": "2023-01-01",
	}
	w := doRequest(t, h, http.MethodPost, "/create/jobPost", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body %s", w.Code, w.Body.String())
	}
	if st.insertCalls != 1 {
		t.Fatalf("expected one insert, got %d", st.insertCalls)
	}
	if resp := decodeMap(t, w); resp["job_id"] != float64(7) {
		t.Fatalf("expected generated job_id 7, got %v", resp)
	}
}

func TestCreateJobValidationFailure(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	h := NewHandler(st, nil)

	body := map[string]any{
		"company":      map[string]any{"name": "Acme"},
		"industry":     map[string]any{"name": "Technology"},
		"posting_date": "2023-01-01",
	}
	w := doRequest(t, h, http.MethodPost, "/create/jobPost", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if st.insertCalls != 0 {
		t.Fatalf("expected no insert on validation failure, got %d", st.insertCalls)
	}
	resp := decodeMap(t, w)
	if resp["error"] != "validation_error" {
		t.Fatalf("expected validation_error, got %v", resp)
	}
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "title") {
		t.Fatalf("expected message naming the missing field, got %q", msg)
	}
}

func TestJobByID(t *testing.T) {
	t.Parallel()

	st := &stubStore{jobs: map[uint64]model.Job{5: {JobID: 5, Title: "Nurse"}}}
	h := NewHandler(st, nil)

	w := doRequest(t, h, http.MethodGet, "/view_jobs_by_id/5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := decodeMap(t, w); resp["title"] != "Nurse" {
		t.Fatalf("expected bare document, got %v", resp)
	}

	w = doRequest(t, h, http.MethodGet, "/view_jobs_by_id/6", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing job, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/view_jobs_by_id/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", w.Code)
	}
}

func TestListEnvelopes(t *testing.T) {
	t.Parallel()

	st := &stubStore{found: []model.Job{{JobID: 1}, {JobID: 2}}}
	h := NewHandler(st, nil)

	w := doRequest(t, h, http.MethodGet, "/jobs/industry/Technology", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeMap(t, w)
	if resp["industry"] != "Technology" || resp["count"] != float64(2) {
		t.Fatalf("expected criterion and count in envelope, got %v", resp)
	}
	if st.lastFilter.IndustryName != "Technology" {
		t.Fatalf("expected industry filter, got %+v", st.lastFilter)
	}

	w = doRequest(t, h, http.MethodGet, "/jobs/skills/Go&SQL", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(st.lastFilter.Skills) != 2 || st.lastFilter.Skills[0] != "Go" || st.lastFilter.Skills[1] != "SQL" {
		t.Fatalf("expected both skills in filter, got %v", st.lastFilter.Skills)
	}

	w = doRequest(t, h, http.MethodGet, "/jobs/salary?min_salary=80000&max_salary=120000", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp = decodeMap(t, w)
	if resp["min_salary"] != float64(80000) || resp["max_salary"] != float64(120000) {
		t.Fatalf("expected bounds echoed in envelope, got %v", resp)
	}
	if st.lastFilter.MinSalary == nil || *st.lastFilter.MinSalary != 80000 {
		t.Fatalf("expected min bound in filter, got %+v", st.lastFilter)
	}
}

func TestSalaryValidation(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubStore{}, nil)
	w := doRequest(t, h, http.MethodGet, "/jobs/salary?min_salary=lots", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric bound, got %d", w.Code)
	}
}

func TestExperienceRequiresParameter(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubStore{}, nil)
	w := doRequest(t, h, http.MethodGet, "/jobs/experience", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without experience_level, got %d", w.Code)
	}
}

func TestUpdateJob(t *testing.T) {
	t.Parallel()

	st := &stubStore{updated: 1}
	h := NewHandler(st, nil)

	w := doRequest(t, h, http.MethodPost, "/jobs/update/5", map[string]any{"title": "Engineer", "remote": true})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", w.Code, w.Body.String())
	}
	resp := decodeMap(t, w)
	if resp["modified_count"] != float64(1) {
		t.Fatalf("expected modified_count 1, got %v", resp)
	}
	fields, _ := resp["updated_fields"].([]any)
	if len(fields) != 2 || fields[0] != "remote" || fields[1] != "title" {
		t.Fatalf("expected sorted updated_fields, got %v", resp["updated_fields"])
	}
}

func TestUpdateJobRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	st := &stubStore{updated: 1}
	h := NewHandler(st, nil)

	w := doRequest(t, h, http.MethodPost, "/jobs/update/5", map[string]any{"perk": "snacks", "vibe": "good"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if st.updateCalls != 0 {
		t.Fatalf("expected no update on rejection, got %d", st.updateCalls)
	}
	resp := decodeMap(t, w)
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "Unknown fields: perk, vibe") {
		t.Fatalf("expected aggregated unknown-field message, got %q", msg)
	}
}

func TestUpdateJobNotFound(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubStore{updated: 0}, nil)
	w := doRequest(t, h, http.MethodPost, "/jobs/update/99", map[string]any{"title": "Ghost"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing job, got %d", w.Code)
	}
}

func TestDeleteJob(t *testing.T) {
	t.Parallel()

	st := &stubStore{deleted: 1}
	h := NewHandler(st, nil)

	w := doRequest(t, h, http.MethodDelete, "/jobs/delete/5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := decodeMap(t, w); resp["deleted_count"] != float64(1) {
		t.Fatalf("expected deleted_count 1, got %v", resp)
	}

	st.deleted = 0
	w = doRequest(t, h, http.MethodDelete, "/jobs/delete/5", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when nothing deleted, got %d", w.Code)
	}
	if resp := decodeMap(t, w); resp["deleted_count"] != nil {
		t.Fatalf("expected no deleted_count on 404, got %v", resp)
	}
}

func TestStoreUnavailable(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubStore{err: errors.New("connection refused")}, nil)
	w := doRequest(t, h, http.MethodGet, "/jobs/industry/Technology", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on store failure, got %d", w.Code)
	}
	if resp := decodeMap(t, w); resp["error"] != "store_unavailable" {
		t.Fatalf("expected store_unavailable error, got %v", resp)
	}
}

// TestCreateThenViewRoundTrip 走真实存储：创建后立即按 id 查询，
// 文档字段应与提交内容一致；删除后再查询应 404。
func TestCreateThenViewRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "careerhub.db"))
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	h := NewHandler(store, nil)

	body := map[string]any{
		"title":            "Backend Engineer",
		"company":          map[string]any{"name": "Acme", "headquarters": "Boston"},
		"industry":         map[string]any{"name": "Technology"},
		"posting_date":     "2023-01-01",
		"average_salary":   90000.0,
		"remote":           true,
		"skills_required":  []any{"Go", "SQL"},
		"experience_level": "Entry Level",
	}
	w := doRequest(t, h, http.MethodPost, "/create/jobPost", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body %s", w.Code, w.Body.String())
	}
	jobID := decodeMap(t, w)["job_id"].(float64)

	w = doRequest(t, h, http.MethodGet, fmt.Sprintf("/view_jobs_by_id/%.0f", jobID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	doc := decodeMap(t, w)
	if doc["title"] != "Backend Engineer" || doc["average_salary"] != float64(90000) || doc["remote"] != true {
		t.Fatalf("expected submitted fields to round-trip, got %v", doc)
	}
	company, _ := doc["company"].(map[string]any)
	if company["name"] != "Acme" {
		t.Fatalf("expected embedded company to round-trip, got %v", doc["company"])
	}

	w = doRequest(t, h, http.MethodDelete, fmt.Sprintf("/jobs/delete/%.0f", jobID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", w.Code)
	}
	w = doRequest(t, h, http.MethodGet, fmt.Sprintf("/view_jobs_by_id/%.0f", jobID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

// --- stubs ---

type stubStore struct {
	jobs        map[uint64]model.Job
	found       []model.Job
	lastFilter  storage.JobFilter
	insertCalls int
	updateCalls int
	updated     int64
	deleted     int64
	err         error
}

func (s *stubStore) InsertJob(_ context.Context, job *model.Job) error {
	s.insertCalls++
	if s.err != nil {
		return s.err
	}
	job.JobID = 7
	return nil
}

func (s *stubStore) GetJob(_ context.Context, jobID uint64) (*model.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &job, nil
}

func (s *stubStore) FindJobs(_ context.Context, filter storage.JobFilter) ([]model.Job, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.found, nil
}

func (s *stubStore) UpdateJob(_ context.Context, _ uint64, _ map[string]any) (int64, error) {
	s.updateCalls++
	if s.err != nil {
		return 0, s.err
	}
	return s.updated, nil
}

func (s *stubStore) DeleteJob(_ context.Context, _ uint64) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.deleted, nil
}

func (s *stubStore) CountByIndustry(_ context.Context) ([]storage.IndustryCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []storage.IndustryCount{{Industry: "Technology", Count: 2}}, nil
}

func (s *stubStore) TopBySalary(_ context.Context, n int) ([]model.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.found) > n {
		return s.found[:n], nil
	}
	return s.found, nil
}

func (s *stubStore) ListCompanies(_ context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []string{"Acme", "Globex"}, nil
}
