package model

import (
	"gorm.io/datatypes"
)

// 经验级别枚举，由工作年限区间推导或在写入时显式给出。
const (
	ExperienceEntry  = "Entry Level"
	ExperienceMid    = "Mid Level"
	ExperienceSenior = "Senior Level"
)

// ExperienceLevels 列出所有合法的经验级别。
var ExperienceLevels = []string{ExperienceEntry, ExperienceMid, ExperienceSenior}

// Company 表示岗位内嵌的公司信息。
type Company struct {
	Name         string `json:"name"`
	Size         string `json:"size"`
	Type         string `json:"type"`
	Headquarters string `json:"headquarters"`
	Website      string `json:"website"`
	Description  string `json:"description"`
}

// Industry 表示岗位内嵌的行业信息。
type Industry struct {
	Name         string   `json:"name"`
	Skills       []string `json:"skills"`
	TopCompanies []string `json:"top_companies"`
	Trends       []string `json:"trends"`
}

// Education 表示岗位内嵌的学历要求。
type Education struct {
	Level string `json:"level"`
	Field string `json:"field"`
}

// Job 表示一条去范式化的岗位文档
// 中文注释说明字段用途
// - JobID: 全局唯一主键，批量导入时显式给定，单条创建时自增生成
// - Company/Industry/EducationRequired: 内嵌子文档，整体以 JSON 列存储
// - SkillsRequired/Responsibilities/Benefits: 字符串列表，JSON 列存储
// - ExperienceLevel: 枚举，见 ExperienceLevels

type Job struct {
	JobID             uint64                        `gorm:"primaryKey;autoIncrement;column:job_id" json:"job_id"`
	Title             string                        `json:"title"`
	Description       string                        `json:"description"`
	YearsOfExperience string                        `json:"years_of_experience"`
	Responsibilities  datatypes.JSONSlice[string]   `json:"responsibilities"`
	Company           datatypes.JSONType[Company]   `json:"company"`
	Industry          datatypes.JSONType[Industry]  `json:"industry"`
	EducationRequired datatypes.JSONType[Education] `json:"education_required"`
	SkillsRequired    datatypes.JSONSlice[string]   `json:"skills_required"`
	EmploymentType    string                        `json:"employment_type"`
	AverageSalary     float64                       `json:"average_salary"`
	Benefits          datatypes.JSONSlice[string]   `json:"benefits"`
	Remote            bool                          `json:"remote"`
	Location          string                        `json:"location"`
	JobPostingURL     string                        `json:"job_posting_url"`
	PostingDate       string                        `json:"posting_date"`
	ClosingDate       string                        `json:"closing_date"`
	ExperienceLevel   string                        `json:"experience_level"`
}
