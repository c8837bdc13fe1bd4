package query

import (
	"testing"
)

func TestJobID(t *testing.T) {
	t.Parallel()

	id, err := JobID("42")
	if err != nil {
		t.Fatalf("JobID error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected 42, got %d", id)
	}

	for _, raw := range []string{"", "abc", "-1", "1.5"} {
		if _, err := JobID(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestBySkillsSplitsSegment(t *testing.T) {
	t.Parallel()

	filter := BySkills("Go& SQL &&Python")
	want := []string{"Go", "SQL", "Python"}
	if len(filter.Skills) != len(want) {
		t.Fatalf("expected skills %v, got %v", want, filter.Skills)
	}
	for i, skill := range want {
		if filter.Skills[i] != skill {
			t.Fatalf("expected skills %v, got %v", want, filter.Skills)
		}
	}

	if got := BySkills(" "); len(got.Skills) != 0 {
		t.Fatalf("expected no skills for blank segment, got %v", got.Skills)
	}
}

func TestBySalaryRange(t *testing.T) {
	t.Parallel()

	filter, err := BySalaryRange("80000", "120000")
	if err != nil {
		t.Fatalf("BySalaryRange error: %v", err)
	}
	if filter.MinSalary == nil || *filter.MinSalary != 80000 {
		t.Fatalf("expected min bound 80000, got %v", filter.MinSalary)
	}
	if filter.MaxSalary == nil || *filter.MaxSalary != 120000 {
		t.Fatalf("expected max bound 120000, got %v", filter.MaxSalary)
	}

	// Omitted bounds stay open.
	filter, err = BySalaryRange("", "90000")
	if err != nil {
		t.Fatalf("BySalaryRange error: %v", err)
	}
	if filter.MinSalary != nil {
		t.Fatalf("expected open lower bound, got %v", *filter.MinSalary)
	}
	if filter.MaxSalary == nil {
		t.Fatalf("expected max bound to be set")
	}

	if _, err := BySalaryRange("lots", ""); err == nil {
		t.Fatalf("expected error for non-numeric min_salary")
	}
	if _, err := BySalaryRange("", "plenty"); err == nil {
		t.Fatalf("expected error for non-numeric max_salary")
	}
}

func TestSimpleFiltersTrim(t *testing.T) {
	t.Parallel()

	if f := ByIndustry(" Technology "); f.IndustryName != "Technology" {
		t.Fatalf("expected trimmed industry name, got %q", f.IndustryName)
	}
	if f := ByCompany("Acme"); f.CompanyName != "Acme" {
		t.Fatalf("expected company filter, got %q", f.CompanyName)
	}
	if f := ByLocation("Boston"); f.Location != "Boston" {
		t.Fatalf("expected location filter, got %q", f.Location)
	}
	if f := ByDegree("Bachelor"); f.DegreeLevel != "Bachelor" {
		t.Fatalf("expected degree filter, got %q", f.DegreeLevel)
	}
	if f := ByExperience("Mid Level"); f.ExperienceLevel != "Mid Level" {
		t.Fatalf("expected experience filter, got %q", f.ExperienceLevel)
	}
}
