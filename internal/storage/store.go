package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"careerhub/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrNotFound 表示按键查询未命中任何文档。
var ErrNotFound = errors.New("document not found")

// Store 封装 SQLite 文档集合访问，负责岗位文档的增删改查与聚合。
type Store struct {
	db *gorm.DB
}

// JobFilter 提供岗位查询过滤条件。嵌套字段（行业名、公司名、总部、
// 学历级别）按大小写不敏感精确匹配；Skills 要求每个技能都出现在
// 文档的技能列表中；薪资上下界均为闭区间，nil 表示该侧开放。
type JobFilter struct {
	IndustryName    string
	CompanyName     string
	DegreeLevel     string
	Location        string
	ExperienceLevel string
	Skills          []string
	MinSalary       *float64
	MaxSalary       *float64
}

// IndustryCount 表示按行业分组的岗位数量。
type IndustryCount struct {
	Industry string `json:"industry"`
	Count    int64  `json:"count"`
}

// NewStore 创建 Store 并自动迁移数据表。
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&model.Job{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// InsertJob 写入单条岗位文档，JobID 为零时由主键自增生成并回填。
func (s *Store) InsertJob(ctx context.Context, job *model.Job) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// ImportJobs 批量导入转换脚本产出的岗位文档，返回写入数量。
func (s *Store) ImportJobs(ctx context.Context, jobs []model.Job) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(jobs, 100).Error; err != nil {
		return 0, fmt.Errorf("import jobs: %w", err)
	}
	return len(jobs), nil
}

// GetJob 根据 job_id 获取岗位文档，未命中返回 ErrNotFound。
func (s *Store) GetJob(ctx context.Context, jobID uint64) (*model.Job, error) {
	var job model.Job
	if err := s.db.WithContext(ctx).First(&job, "job_id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// FindJobs 返回满足过滤条件的岗位文档，按 job_id 升序。
func (s *Store) FindJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	jobs := make([]model.Job, 0)
	query := applyJobFilters(s.db.WithContext(ctx).Model(&model.Job{}), filter).Order("job_id ASC")
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	return jobs, nil
}

// CountJobs 返回集合内的文档总数。
func (s *Store) CountJobs(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Job{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return total, nil
}

// UpdateJob 按 job_id 一次性覆盖给定字段，返回修改的文档数（0 或 1）。
// values 以列名为键，值需可直接写入对应列。
func (s *Store) UpdateJob(ctx context.Context, jobID uint64, values map[string]any) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	tx := s.db.WithContext(ctx).Model(&model.Job{}).Where("job_id = ?", jobID).Updates(values)
	if tx.Error != nil {
		return 0, fmt.Errorf("update job: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// DeleteJob 按 job_id 删除岗位文档，返回删除的文档数（0 或 1）。
func (s *Store) DeleteJob(ctx context.Context, jobID uint64) (int64, error) {
	tx := s.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&model.Job{})
	if tx.Error != nil {
		return 0, fmt.Errorf("delete job: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// CountByIndustry 按行业名分组统计岗位数量，按数量降序返回；
// 数量相同的行业之间顺序不保证。
func (s *Store) CountByIndustry(ctx context.Context) ([]IndustryCount, error) {
	counts := make([]IndustryCount, 0)
	err := s.db.WithContext(ctx).Model(&model.Job{}).
		Select("json_extract(industry, '$.name') AS industry, COUNT(*) AS count").
		Group("json_extract(industry, '$.name')").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count by industry: %w", err)
	}
	return counts, nil
}

// TopBySalary 返回平均薪资最高的前 n 条岗位文档，降序排列。
func (s *Store) TopBySalary(ctx context.Context, n int) ([]model.Job, error) {
	if n <= 0 {
		n = 5
	}
	jobs := make([]model.Job, 0, n)
	err := s.db.WithContext(ctx).Model(&model.Job{}).
		Order("average_salary DESC").
		Limit(n).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("top by salary: %w", err)
	}
	return jobs, nil
}

// ListCompanies 返回去重后的公司名称列表，按字典序升序。
func (s *Store) ListCompanies(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := s.db.WithContext(ctx).Model(&model.Job{}).
		Select("DISTINCT json_extract(company, '$.name') AS name").
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return names, nil
}

func applyJobFilters(db *gorm.DB, filter JobFilter) *gorm.DB {
	if filter.IndustryName != "" {
		db = db.Where("LOWER(json_extract(industry, '$.name')) = LOWER(?)", filter.IndustryName)
	}
	if filter.CompanyName != "" {
		db = db.Where("LOWER(json_extract(company, '$.name')) = LOWER(?)", filter.CompanyName)
	}
	if filter.Location != "" {
		db = db.Where("LOWER(json_extract(company, '$.headquarters')) = LOWER(?)", filter.Location)
	}
	if filter.DegreeLevel != "" {
		db = db.Where("LOWER(json_extract(education_required, '$.level')) = LOWER(?)", filter.DegreeLevel)
	}
	if filter.ExperienceLevel != "" {
		db = db.Where("experience_level = ?", filter.ExperienceLevel)
	}
	for _, skill := range filter.Skills {
		if skill == "" {
			continue
		}
		db = db.Where("EXISTS (SELECT 1 FROM json_each(jobs.skills_required) WHERE LOWER(json_each.value) = LOWER(?))", skill)
	}
	if filter.MinSalary != nil {
		db = db.Where("average_salary >= ?", *filter.MinSalary)
	}
	if filter.MaxSalary != nil {
		db = db.Where("average_salary <= ?", *filter.MaxSalary)
	}
	return db
}
