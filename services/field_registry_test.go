package services

import (
	"errors"
	"testing"

	"research-portal-api/models"
)

func publicationFieldsFixture() *SubmissionFields {
	return &SubmissionFields{
		Submission: &models.Submission{
			SubmissionID:   1,
			SubmissionKind: models.KindPublication,
		},
		Publication: &models.PublicationDetail{
			DetailID:        1,
			SubmissionID:    1,
			ArticleTitle:    "Old Title",
			JournalQuartile: "Q2",
			PublicationYear: 2024,
		},
	}
}

func TestApplyFieldValueWritesRegisteredField(t *testing.T) {
	fields := publicationFieldsFixture()

	if err := ApplyFieldValue(fields, "article_title", "New Title"); err != nil {
		t.Fatalf("ApplyFieldValue returned error: %v", err)
	}
	if fields.Publication.ArticleTitle != "New Title" {
		t.Fatalf("expected field write, got %q", fields.Publication.ArticleTitle)
	}

	value, err := FieldValue(fields, "article_title")
	if err != nil {
		t.Fatalf("FieldValue returned error: %v", err)
	}
	if value != "New Title" {
		t.Fatalf("expected read-back of written value, got %q", value)
	}
}

func TestApplyFieldValueRejectsUnknownField(t *testing.T) {
	fields := publicationFieldsFixture()

	err := ApplyFieldValue(fields, "reviewer_notes", "anything")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	err = ApplyFieldValue(fields, "title", "wrong registry")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ipr field on a publication must fail, got %v", err)
	}
}

func TestApplyFieldValueValidatesTypedFields(t *testing.T) {
	fields := publicationFieldsFixture()

	if err := ApplyFieldValue(fields, "publication_year", "not-a-year"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad year, got %v", err)
	}
	if fields.Publication.PublicationYear != 2024 {
		t.Fatalf("failed write must not touch the field, got %d", fields.Publication.PublicationYear)
	}

	if err := ApplyFieldValue(fields, "publication_year", "2025"); err != nil {
		t.Fatalf("ApplyFieldValue returned error: %v", err)
	}
	if fields.Publication.PublicationYear != 2025 {
		t.Fatalf("expected 2025, got %d", fields.Publication.PublicationYear)
	}

	// Quartiles are normalized to the canonical upper-case form.
	if err := ApplyFieldValue(fields, "journal_quartile", " q1 "); err != nil {
		t.Fatalf("ApplyFieldValue returned error: %v", err)
	}
	if fields.Publication.JournalQuartile != "Q1" {
		t.Fatalf("expected Q1, got %q", fields.Publication.JournalQuartile)
	}
	if err := ApplyFieldValue(fields, "journal_quartile", "Q9"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown quartile, got %v", err)
	}
}

func TestGrantBudgetParsing(t *testing.T) {
	fields := &SubmissionFields{
		Submission: &models.Submission{SubmissionID: 2, SubmissionKind: models.KindGrant},
		Grant: &models.GrantDetail{
			DetailID:     2,
			SubmissionID: 2,
			ProjectTitle: "Sensor Network Pilot",
		},
	}

	if err := ApplyFieldValue(fields, "budget_amount", "1,250,000.50"); err != nil {
		t.Fatalf("ApplyFieldValue returned error: %v", err)
	}
	if fields.Grant.BudgetAmount != 1250000.50 {
		t.Fatalf("expected 1250000.50, got %v", fields.Grant.BudgetAmount)
	}

	if err := ApplyFieldValue(fields, "budget_amount", "-500"); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative budget must fail, got %v", err)
	}
	if err := ApplyFieldValue(fields, "duration_months", "0"); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero duration must fail, got %v", err)
	}
}

func TestFieldAccessRequiresLoadedDetail(t *testing.T) {
	fields := &SubmissionFields{
		Submission: &models.Submission{SubmissionID: 3, SubmissionKind: models.KindIPR},
	}

	if _, err := FieldValue(fields, "title"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without detail, got %v", err)
	}
	if err := ApplyFieldValue(fields, "title", "x"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without detail, got %v", err)
	}
}

func TestSuggestableFieldsPerKind(t *testing.T) {
	cases := map[string][]string{
		models.KindIPR:         {"title", "ipr_type", "description", "filing_number"},
		models.KindPublication: {"article_title", "journal_name", "journal_quartile", "doi", "volume_issue", "page_numbers", "publication_year"},
		models.KindGrant:       {"project_title", "grant_type", "funding_agency", "budget_amount", "duration_months", "abstract"},
	}

	for kind, want := range cases {
		got := SuggestableFields(kind)
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d fields, got %d", kind, len(want), len(got))
		}
		set := make(map[string]bool, len(got))
		for _, name := range got {
			set[name] = true
		}
		for _, name := range want {
			if !set[name] {
				t.Fatalf("%s: missing field %q", kind, name)
			}
		}
	}

	if got := SuggestableFields("unknown"); len(got) != 0 {
		t.Fatalf("unknown kind must have no fields, got %v", got)
	}
}
