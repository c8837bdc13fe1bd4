package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"careerhub/internal/model"

	"gorm.io/datatypes"
)

// FieldErrors 聚合一次请求中的全部字段级错误。
type FieldErrors []string

func (e FieldErrors) Error() string {
	return strings.Join(e, "; ")
}

// kind 描述岗位字段的期望类型。
type kind int

const (
	kindString kind = iota
	kindNumber
	kindBool
	kindStringList
	kindObject
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "a string"
	case kindNumber:
		return "a number"
	case kindBool:
		return "a boolean"
	case kindStringList:
		return "a list of strings"
	default:
		return "an object"
	}
}

// jobFields 是岗位文档的全部已知字段及期望类型，键同时是 JSON 字段名
// 与存储列名。job_id 单独处理，不在表内。
var jobFields = map[string]kind{
	"title":               kindString,
	"description":         kindString,
	"years_of_experience": kindString,
	"responsibilities":    kindStringList,
	"company":             kindObject,
	"industry":            kindObject,
	"education_required":  kindObject,
	"skills_required":     kindStringList,
	"employment_type":     kindString,
	"average_salary":      kindNumber,
	"benefits":            kindStringList,
	"remote":              kindBool,
	"location":            kindString,
	"job_posting_url":     kindString,
	"posting_date":        kindString,
	"closing_date":        kindString,
	"experience_level":    kindString,
}

// requiredFields 是创建岗位时必须出现的字段。
var requiredFields = []string{"title", "company", "industry", "posting_date"}

// Create 校验创建请求体并产出完整的岗位文档。必填字段缺失、类型不符
// 或出现未知字段时返回全部错误，此时不产出文档。
func Create(body map[string]any) (*model.Job, FieldErrors) {
	var errs FieldErrors

	for _, name := range requiredFields {
		if _, ok := body[name]; !ok {
			errs = append(errs, fmt.Sprintf("missing required field: %s", name))
		}
	}

	checked, unknown, typeErrs := checkFields(body)
	errs = append(errs, typeErrs...)
	if len(unknown) > 0 {
		errs = append(errs, fmt.Sprintf("Unknown fields: %s", strings.Join(unknown, ", ")))
	}

	// 显式给定 job_id 时沿用它作为主键，但必须是数字。
	if v, ok := body["job_id"]; ok {
		if msg := checkKind("job_id", kindNumber, v); msg != "" {
			errs = append(errs, msg)
		}
	}

	// 内嵌子文档的 name 字段为查询入口，创建时必须非空。
	for _, name := range []string{"company", "industry"} {
		obj, ok := checked[name].(map[string]any)
		if !ok {
			continue
		}
		if inner, ok := obj["name"].(string); !ok || strings.TrimSpace(inner) == "" {
			errs = append(errs, fmt.Sprintf("%s.name is required", name))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	// 字段类型已逐一校验，借助共享的 JSON 标签反序列化为文档。
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, FieldErrors{fmt.Sprintf("invalid request body: %v", err)}
	}
	var job model.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, FieldErrors{fmt.Sprintf("invalid request body: %v", err)}
	}
	return &job, nil
}

// UpdateSet 描述一次通过校验的部分更新。
type UpdateSet struct {
	// Fields 是实际接受的字段名，字典序。
	Fields []string
	// Values 以列名为键，值可直接交给存储层覆盖写入。
	Values map[string]any
}

// Update 校验部分更新请求体。请求体中的 job_id 被静默忽略（路径参数
// 为准）；未知字段聚合成一条错误一并报告；任一错误都会使整个更新被
// 拒绝，不产生任何字段变更。
func Update(body map[string]any) (UpdateSet, FieldErrors) {
	var errs FieldErrors

	checked, unknown, typeErrs := checkFields(body)
	errs = append(errs, typeErrs...)
	if len(unknown) > 0 {
		errs = append(errs, fmt.Sprintf("Unknown fields: %s", strings.Join(unknown, ", ")))
	}
	if len(errs) > 0 {
		return UpdateSet{}, errs
	}
	if len(checked) == 0 {
		return UpdateSet{}, FieldErrors{"no updatable fields in request body"}
	}

	set := UpdateSet{Values: make(map[string]any, len(checked))}
	for name := range checked {
		set.Fields = append(set.Fields, name)
	}
	sort.Strings(set.Fields)

	for _, name := range set.Fields {
		value, msg := storeValue(name, checked[name])
		if msg != "" {
			errs = append(errs, msg)
			continue
		}
		set.Values[name] = value
	}
	if len(errs) > 0 {
		return UpdateSet{}, errs
	}
	return set, nil
}

// checkFields 对请求体逐字段做类型检查，返回通过检查的字段、未知字段
// 名（字典序）与类型错误。job_id 不参与检查也不出现在结果里。
func checkFields(body map[string]any) (map[string]any, []string, FieldErrors) {
	names := make([]string, 0, len(body))
	for name := range body {
		names = append(names, name)
	}
	sort.Strings(names)

	checked := make(map[string]any, len(body))
	var unknown []string
	var errs FieldErrors

	for _, name := range names {
		if name == "job_id" {
			continue
		}
		expected, ok := jobFields[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if msg := checkKind(name, expected, body[name]); msg != "" {
			errs = append(errs, msg)
			continue
		}
		if name == "experience_level" {
			if msg := checkExperienceLevel(body[name].(string)); msg != "" {
				errs = append(errs, msg)
				continue
			}
		}
		checked[name] = body[name]
	}
	return checked, unknown, errs
}

func checkKind(name string, expected kind, value any) string {
	ok := false
	switch expected {
	case kindString:
		_, ok = value.(string)
	case kindNumber:
		switch value.(type) {
		case float64, int, int64, json.Number:
			ok = true
		}
	case kindBool:
		_, ok = value.(bool)
	case kindStringList:
		ok = isStringList(value)
	case kindObject:
		_, ok = value.(map[string]any)
	}
	if !ok {
		return fmt.Sprintf("field %s must be %s", name, expected)
	}
	return ""
}

func checkExperienceLevel(value string) string {
	for _, level := range model.ExperienceLevels {
		if value == level {
			return ""
		}
	}
	return fmt.Sprintf("field experience_level must be one of: %s", strings.Join(model.ExperienceLevels, ", "))
}

func isStringList(value any) bool {
	switch list := value.(type) {
	case []string:
		return true
	case []any:
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// storeValue 把通过类型检查的字段值转换为可写入存储的形式。
func storeValue(name string, value any) (any, string) {
	switch jobFields[name] {
	case kindStringList:
		return datatypes.NewJSONSlice(toStringList(value)), ""
	case kindObject:
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Sprintf("field %s must be %s", name, kindObject)
		}
		switch name {
		case "company":
			var c model.Company
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, fmt.Sprintf("field %s must be %s", name, kindObject)
			}
			return datatypes.NewJSONType(c), ""
		case "industry":
			var ind model.Industry
			if err := json.Unmarshal(raw, &ind); err != nil {
				return nil, fmt.Sprintf("field %s must be %s", name, kindObject)
			}
			return datatypes.NewJSONType(ind), ""
		default:
			var edu model.Education
			if err := json.Unmarshal(raw, &edu); err != nil {
				return nil, fmt.Sprintf("field %s must be %s", name, kindObject)
			}
			return datatypes.NewJSONType(edu), ""
		}
	case kindNumber:
		switch v := value.(type) {
		case float64:
			return v, ""
		case int:
			return float64(v), ""
		case int64:
			return float64(v), ""
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Sprintf("field %s must be %s", name, kindNumber)
			}
			return f, ""
		}
		return nil, fmt.Sprintf("field %s must be %s", name, kindNumber)
	default:
		return value, ""
	}
}

func toStringList(value any) []string {
	switch list := value.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
