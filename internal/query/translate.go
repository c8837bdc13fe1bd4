// Package query 把 HTTP 请求的路径与查询参数翻译成存储层过滤条件。
package query

import (
	"fmt"
	"strconv"
	"strings"

	"careerhub/internal/storage"
)

// JobID 解析路径中的岗位主键，要求为正整数。
func JobID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("job_id must be a positive integer")
	}
	return id, nil
}

// ByIndustry 构造按行业名（大小写不敏感）过滤的条件。
func ByIndustry(name string) storage.JobFilter {
	return storage.JobFilter{IndustryName: strings.TrimSpace(name)}
}

// ByCompany 构造按公司名（大小写不敏感）过滤的条件。
func ByCompany(name string) storage.JobFilter {
	return storage.JobFilter{CompanyName: strings.TrimSpace(name)}
}

// ByLocation 构造按公司总部所在地（大小写不敏感）过滤的条件。
func ByLocation(location string) storage.JobFilter {
	return storage.JobFilter{Location: strings.TrimSpace(location)}
}

// ByDegree 构造按学历级别（大小写不敏感）过滤的条件。
func ByDegree(level string) storage.JobFilter {
	return storage.JobFilter{DegreeLevel: strings.TrimSpace(level)}
}

// ByExperience 构造按经验级别精确匹配的条件。
func ByExperience(level string) storage.JobFilter {
	return storage.JobFilter{ExperienceLevel: strings.TrimSpace(level)}
}

// BySkills 解析一个以 & 连接多个技能的路径段，构造全量包含条件：
// 每个技能都必须（大小写不敏感地）出现在岗位的技能列表中，技能的
// 给定顺序不影响结果。
func BySkills(segment string) storage.JobFilter {
	parts := strings.Split(segment, "&")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		if skill := strings.TrimSpace(part); skill != "" {
			skills = append(skills, skill)
		}
	}
	return storage.JobFilter{Skills: skills}
}

// BySalaryRange 解析薪资区间参数，两端均可省略（该侧开放），给定时
// 为闭区间边界；非数字参数报错。
func BySalaryRange(minRaw, maxRaw string) (storage.JobFilter, error) {
	var filter storage.JobFilter
	if raw := strings.TrimSpace(minRaw); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return storage.JobFilter{}, fmt.Errorf("min_salary must be a number")
		}
		filter.MinSalary = &v
	}
	if raw := strings.TrimSpace(maxRaw); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return storage.JobFilter{}, fmt.Errorf("max_salary must be a number")
		}
		filter.MaxSalary = &v
	}
	return filter, nil
}
