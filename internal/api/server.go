package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"careerhub/internal/model"
	"careerhub/internal/query"
	"careerhub/internal/storage"
	"careerhub/internal/validate"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Store 抽象文档存储接口，便于测试替换。
type Store interface {
	InsertJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, jobID uint64) (*model.Job, error)
	FindJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error)
	UpdateJob(ctx context.Context, jobID uint64, values map[string]any) (int64, error)
	DeleteJob(ctx context.Context, jobID uint64) (int64, error)
	CountByIndustry(ctx context.Context) ([]storage.IndustryCount, error)
	TopBySalary(ctx context.Context, n int) ([]model.Job, error)
	ListCompanies(ctx context.Context) ([]string, error)
}

type server struct {
	store  Store
	logger *zap.Logger
}

// NewHandler 构造 HTTP 路由。固定路径的路由必须先于带参数的路由注册。
func NewHandler(store Store, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &server{store: store, logger: logger}

	r := mux.NewRouter()
	r.Use(requestLogger(logger))

	r.HandleFunc("/", s.home).Methods(http.MethodGet)
	r.HandleFunc("/create/jobPost", s.createJob).Methods(http.MethodPost)
	r.HandleFunc("/view_jobs_by_id/{job_id}", s.jobByID).Methods(http.MethodGet)

	r.HandleFunc("/jobs/count/industry", s.countByIndustry).Methods(http.MethodGet)
	r.HandleFunc("/jobs/top/salary", s.topBySalary).Methods(http.MethodGet)
	r.HandleFunc("/jobs/companies", s.listCompanies).Methods(http.MethodGet)
	r.HandleFunc("/jobs/salary", s.jobsBySalary).Methods(http.MethodGet)
	r.HandleFunc("/jobs/experience", s.jobsByExperience).Methods(http.MethodGet)

	r.HandleFunc("/jobs/industry/{name}", s.jobsByIndustry).Methods(http.MethodGet)
	r.HandleFunc("/jobs/company/{name}", s.jobsByCompany).Methods(http.MethodGet)
	r.HandleFunc("/jobs/location/{location}", s.jobsByLocation).Methods(http.MethodGet)
	r.HandleFunc("/jobs/skill/{skill}", s.jobsBySkill).Methods(http.MethodGet)
	r.HandleFunc("/jobs/skills/{skills}", s.jobsBySkills).Methods(http.MethodGet)
	r.HandleFunc("/jobs/degree/{degree}", s.jobsByDegree).Methods(http.MethodGet)
	r.HandleFunc("/jobs/update/{job_id}", s.updateJob).Methods(http.MethodPost)
	r.HandleFunc("/jobs/delete/{job_id}", s.deleteJob).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "this route is currently not supported")
	})

	return r
}

func (s *server) home(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"apiVersion": "v1.0",
		"status":     "200",
		"message":    "Welcome to the CareerHub API",
	})
}

func (s *server) createJob(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	job, errs := validate.Create(body)
	if errs != nil {
		writeError(w, http.StatusBadRequest, "validation_error", errs.Error())
		return
	}
	if err := s.store.InsertJob(r.Context(), job); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"job_id": job.JobID})
}

func (s *server) jobByID(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.pathJobID(w, r)
	if !ok {
		return
	}
	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("no job matches job_id %d", jobID))
			return
		}
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *server) jobsByIndustry(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.findAndRespond(w, r, query.ByIndustry(name), map[string]any{"industry": name})
}

func (s *server) jobsByCompany(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.findAndRespond(w, r, query.ByCompany(name), map[string]any{"company": name})
}

func (s *server) jobsByLocation(w http.ResponseWriter, r *http.Request) {
	location := mux.Vars(r)["location"]
	s.findAndRespond(w, r, query.ByLocation(location), map[string]any{"location": location})
}

func (s *server) jobsBySkill(w http.ResponseWriter, r *http.Request) {
	skill := mux.Vars(r)["skill"]
	s.findAndRespond(w, r, query.BySkills(skill), map[string]any{"skill": skill})
}

// jobsBySkills 处理以 & 连接多个技能的路径段；岗位的技能列表必须
// （大小写不敏感地）包含其中每一个。
func (s *server) jobsBySkills(w http.ResponseWriter, r *http.Request) {
	filter := query.BySkills(mux.Vars(r)["skills"])
	if len(filter.Skills) == 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "at least one skill is required")
		return
	}
	s.findAndRespond(w, r, filter, map[string]any{"skills": filter.Skills})
}

func (s *server) jobsByDegree(w http.ResponseWriter, r *http.Request) {
	degree := mux.Vars(r)["degree"]
	s.findAndRespond(w, r, query.ByDegree(degree), map[string]any{"degree": degree})
}

func (s *server) jobsBySalary(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	filter, err := query.BySalaryRange(params.Get("min_salary"), params.Get("max_salary"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	extra := map[string]any{}
	if filter.MinSalary != nil {
		extra["min_salary"] = *filter.MinSalary
	}
	if filter.MaxSalary != nil {
		extra["max_salary"] = *filter.MaxSalary
	}
	s.findAndRespond(w, r, filter, extra)
}

func (s *server) jobsByExperience(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("experience_level")
	if level == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "experience_level parameter is required")
		return
	}
	s.findAndRespond(w, r, query.ByExperience(level), map[string]any{"experience_level": level})
}

// countByIndustry 返回按行业分组的岗位计数，按数量降序；数量相同的
// 行业顺序不保证。
func (s *server) countByIndustry(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountByIndustry(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *server) topBySalary(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.TopBySalary(r.Context(), 5)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *server) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListCompanies(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(companies), "companies": companies})
}

func (s *server) updateJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.pathJobID(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	set, errs := validate.Update(body)
	if errs != nil {
		writeError(w, http.StatusBadRequest, "validation_error", errs.Error())
		return
	}
	modified, err := s.store.UpdateJob(r.Context(), jobID, set.Values)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if modified == 0 {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("no job matches job_id %d", jobID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":         jobID,
		"updated_fields": set.Fields,
		"modified_count": modified,
	})
}

func (s *server) deleteJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.pathJobID(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteJob(r.Context(), jobID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if deleted == 0 {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("no job matches job_id %d", jobID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_id": jobID, "deleted_count": deleted})
}

func (s *server) findAndRespond(w http.ResponseWriter, r *http.Request, filter storage.JobFilter, extra map[string]any) {
	jobs, err := s.store.FindJobs(r.Context(), filter)
	if err != nil {
		s.storeError(w, err)
		return
	}
	resp := map[string]any{"count": len(jobs), "jobs": jobs}
	for k, v := range extra {
		resp[k] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) pathJobID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	jobID, err := query.JobID(mux.Vars(r)["job_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return 0, false
	}
	return jobID, true
}

// storeError 把存储层错误映射到响应：未命中为 404，其余一律视为
// 存储不可用，不做重试。
func (s *server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	s.logger.Error("store operation failed", zap.Error(err))
	writeError(w, http.StatusServiceUnavailable, "store_unavailable", "document store unavailable")
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "request body must be a JSON object")
		return nil, false
	}
	return body, true
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
