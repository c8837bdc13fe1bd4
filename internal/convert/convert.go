// Package convert 实现一次性的 CSV 到文档转换：读入六张平面表，
// 按外键把公司、行业、学历与技能内嵌进岗位记录，产出自包含的
// 岗位文档数组。转换是离线单次执行的，不应与在线服务并发运行。
package convert

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"careerhub/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

type jobRow struct {
	ID                uint64
	Title             string
	Description       string
	YearsOfExperience string
	Responsibilities  []string
	CompanyID         int
	EducationID       int
	SkillIDs          []int
}

type companyRow struct {
	Company    model.Company
	IndustryID int
}

type detailRow struct {
	EmploymentType string
	AverageSalary  float64
	Benefits       []string
	Remote         bool
	Location       string
	JobPostingURL  string
	PostingDate    string
	ClosingDate    string
}

// tables 是按外键建好索引的全部源表，join 之前一次性构建。
type tables struct {
	jobs       []jobRow
	companies  map[int]companyRow
	industries map[int]model.Industry
	education  map[int]model.Education
	details    map[uint64]detailRow
	skills     map[int]string
}

// Run 执行完整转换：并发读入数据目录下的六张 CSV 表，逐岗位内嵌
// 子记录，并把文档数组一次性写入 output。返回产出的文档数。
func Run(ctx context.Context, logger *zap.Logger, dataDir, output string) (int, error) {
	t, err := loadTables(ctx, dataDir)
	if err != nil {
		return 0, err
	}
	logger.Info("tables loaded",
		zap.Int("jobs", len(t.jobs)),
		zap.Int("companies", len(t.companies)),
		zap.Int("industries", len(t.industries)),
		zap.Int("education", len(t.education)),
		zap.Int("jobs_detail", len(t.details)),
		zap.Int("skills", len(t.skills)))

	docs := t.join()
	if err := WriteDocuments(output, docs); err != nil {
		return 0, err
	}
	logger.Info("documents written", zap.String("output", output), zap.Int("count", len(docs)))
	return len(docs), nil
}

// loadTables 并发读取六张源表并建立主键索引。
func loadTables(ctx context.Context, dir string) (*tables, error) {
	t := &tables{}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := readTable(filepath.Join(dir, "jobs.csv"))
		if err != nil {
			return err
		}
		t.jobs = make([]jobRow, 0, len(rows))
		for _, row := range rows {
			id, err := strconv.ParseUint(row["id"], 10, 64)
			if err != nil {
				return fmt.Errorf("jobs.csv: bad id %q", row["id"])
			}
			t.jobs = append(t.jobs, jobRow{
				ID:                id,
				Title:             row["title"],
				Description:       row["description"],
				YearsOfExperience: row["years_of_experience"],
				Responsibilities:  parseListField(row["responsibilities"]),
				CompanyID:         atoi(row["company_id"]),
				EducationID:       atoi(row["education_id"]),
				SkillIDs:          parseIDList(row["skills_requirement"]),
			})
		}
		return nil
	})

	g.Go(func() error {
		rows, err := readTable(filepath.Join(dir, "companies.csv"))
		if err != nil {
			return err
		}
		t.companies = make(map[int]companyRow, len(rows))
		for _, row := range rows {
			t.companies[atoi(row["id"])] = companyRow{
				Company: model.Company{
					Name:         row["company_name"],
					Size:         row["company_size"],
					Type:         row["company_type"],
					Headquarters: row["company_headquarters"],
					Website:      row["company_website"],
					Description:  row["company_description"],
				},
				IndustryID: atoi(row["industry_id"]),
			}
		}
		return nil
	})

	g.Go(func() error {
		rows, err := readTable(filepath.Join(dir, "industries.csv"))
		if err != nil {
			return err
		}
		t.industries = make(map[int]model.Industry, len(rows))
		for _, row := range rows {
			t.industries[atoi(row["id"])] = model.Industry{
				Name:         row["industry_name"],
				Skills:       parseListField(row["industry_skills"]),
				TopCompanies: parseListField(row["top_companies"]),
				Trends:       parseListField(row["trends"]),
			}
		}
		return nil
	})

	g.Go(func() error {
		rows, err := readTable(filepath.Join(dir, "education.csv"))
		if err != nil {
			return err
		}
		t.education = make(map[int]model.Education, len(rows))
		for _, row := range rows {
			t.education[atoi(row["id"])] = model.Education{
				Level: row["level"],
				Field: row["field"],
			}
		}
		return nil
	})

	g.Go(func() error {
		rows, err := readTable(filepath.Join(dir, "jobs_detail.csv"))
		if err != nil {
			return err
		}
		t.details = make(map[uint64]detailRow, len(rows))
		for _, row := range rows {
			jobID, err := strconv.ParseUint(row["job_id"], 10, 64)
			if err != nil {
				return fmt.Errorf("jobs_detail.csv: bad job_id %q", row["job_id"])
			}
			salary, err := strconv.ParseFloat(strings.TrimSpace(row["average_salary"]), 64)
			if err != nil {
				return fmt.Errorf("jobs_detail.csv: bad average_salary %q", row["average_salary"])
			}
			t.details[jobID] = detailRow{
				EmploymentType: row["employment_type"],
				AverageSalary:  salary,
				Benefits:       parseListField(row["benefits"]),
				Remote:         parseBool(row["remote"]),
				Location:       row["location"],
				JobPostingURL:  row["job_posting_url"],
				PostingDate:    row["posting_date"],
				ClosingDate:    row["closing_date"],
			}
		}
		return nil
	})

	g.Go(func() error {
		rows, err := readTable(filepath.Join(dir, "skills.csv"))
		if err != nil {
			return err
		}
		t.skills = make(map[int]string, len(rows))
		for _, row := range rows {
			t.skills[atoi(row["id"])] = row["skill"]
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

// join 对每个岗位行内嵌匹配的公司、行业、学历与技能，产出文档序列，
// 顺序与 jobs 表一致。未匹配到的公司与学历内嵌零值记录，未匹配到的
// 行业内嵌 name 为 "Unknown" 的记录；子文档键始终存在，下游按嵌套
// 字段过滤时不需要做存在性判断。
func (t *tables) join() []model.Job {
	docs := make([]model.Job, 0, len(t.jobs))
	for _, row := range t.jobs {
		company := t.companies[row.CompanyID]

		industry, ok := t.industries[company.IndustryID]
		if !ok {
			industry = model.Industry{
				Name:         "Unknown",
				Skills:       []string{},
				TopCompanies: []string{},
				Trends:       []string{},
			}
		}

		skillNames := make([]string, 0, len(row.SkillIDs))
		for _, id := range row.SkillIDs {
			if name, ok := t.skills[id]; ok {
				skillNames = append(skillNames, name)
			}
		}

		detail := t.details[row.ID]

		docs = append(docs, model.Job{
			JobID:             row.ID,
			Title:             row.Title,
			Description:       row.Description,
			YearsOfExperience: row.YearsOfExperience,
			Responsibilities:  datatypes.NewJSONSlice(row.Responsibilities),
			Company:           datatypes.NewJSONType(company.Company),
			Industry:          datatypes.NewJSONType(industry),
			EducationRequired: datatypes.NewJSONType(t.education[row.EducationID]),
			SkillsRequired:    datatypes.NewJSONSlice(skillNames),
			EmploymentType:    detail.EmploymentType,
			AverageSalary:     detail.AverageSalary,
			Benefits:          datatypes.NewJSONSlice(detail.Benefits),
			Remote:            detail.Remote,
			Location:          detail.Location,
			JobPostingURL:     detail.JobPostingURL,
			PostingDate:       detail.PostingDate,
			ClosingDate:       detail.ClosingDate,
			ExperienceLevel:   experienceLevel(row.YearsOfExperience),
		})
	}
	return docs
}

// WriteDocuments 把文档数组一次性写成 JSON 文件。
func WriteDocuments(path string, docs []model.Job) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}
	return nil
}

// ReadDocuments 读取转换产出的文档数组，服务启动时用于初始加载。
func ReadDocuments(path string) ([]model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	var docs []model.Job
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal documents: %w", err)
	}
	return docs, nil
}

// experienceLevel 按年限区间的起始年数推导经验级别，解析失败一律
// 归入中级，与源数据的口径一致。
func experienceLevel(years string) string {
	head := strings.TrimSpace(strings.Split(years, "-")[0])
	start, err := strconv.Atoi(head)
	if err != nil {
		return model.ExperienceMid
	}
	switch {
	case start <= 2:
		return model.ExperienceEntry
	case start >= 6:
		return model.ExperienceSenior
	default:
		return model.ExperienceMid
	}
}

// readTable 读取带表头的 CSV 文件，返回按列名索引的行。
func readTable(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: missing header row", filepath.Base(path))
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[strings.TrimSpace(name)] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseListField 把逗号分隔的列值拆成列表，空值返回空列表。
func parseListField(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseIDList 解析形如 "[1, 2, 3]" 的外键列表，忽略无法解析的项。
func parseIDList(value string) []int {
	trimmed := strings.Trim(strings.TrimSpace(value), "[]")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return false
	}
	return b
}

func atoi(value string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(value))
	return n
}
