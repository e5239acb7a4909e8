package services

import (
	"fmt"
	"research-portal-api/models"
	"strconv"
	"strings"
)

// SubmissionFields bundles a submission with its loaded kind-specific
// detail so field accessors can address either.
type SubmissionFields struct {
	Submission  *models.Submission
	IPR         *models.IPRDetail
	Publication *models.PublicationDetail
	Grant       *models.GrantDetail
}

// fieldAccessor is one entry in the closed per-kind field registry. Edit
// suggestions may only target registered fields, so the accept operation is
// statically checkable instead of traversing free-form paths.
type fieldAccessor struct {
	get func(*SubmissionFields) string
	set func(*SubmissionFields, string) error
}

var iprFields = map[string]fieldAccessor{
	"title": {
		get: func(f *SubmissionFields) string { return f.IPR.Title },
		set: func(f *SubmissionFields, v string) error { f.IPR.Title = v; return nil },
	},
	"ipr_type": {
		get: func(f *SubmissionFields) string { return f.IPR.IPRType },
		set: func(f *SubmissionFields, v string) error {
			if !models.ValidIPRType(v) {
				return fmt.Errorf("%w: unknown ipr_type %q", ErrValidation, v)
			}
			f.IPR.IPRType = v
			return nil
		},
	},
	"description": {
		get: func(f *SubmissionFields) string { return f.IPR.Description },
		set: func(f *SubmissionFields, v string) error { f.IPR.Description = v; return nil },
	},
	"filing_number": {
		get: func(f *SubmissionFields) string { return f.IPR.FilingNumber },
		set: func(f *SubmissionFields, v string) error { f.IPR.FilingNumber = v; return nil },
	},
}

var publicationFields = map[string]fieldAccessor{
	"article_title": {
		get: func(f *SubmissionFields) string { return f.Publication.ArticleTitle },
		set: func(f *SubmissionFields, v string) error { f.Publication.ArticleTitle = v; return nil },
	},
	"journal_name": {
		get: func(f *SubmissionFields) string { return f.Publication.JournalName },
		set: func(f *SubmissionFields, v string) error { f.Publication.JournalName = v; return nil },
	},
	"journal_quartile": {
		get: func(f *SubmissionFields) string { return f.Publication.JournalQuartile },
		set: func(f *SubmissionFields, v string) error {
			q := strings.ToUpper(strings.TrimSpace(v))
			switch q {
			case "Q1", "Q2", "Q3", "Q4", "T5", "T10":
				f.Publication.JournalQuartile = q
				return nil
			}
			return fmt.Errorf("%w: unknown journal quartile %q", ErrValidation, v)
		},
	},
	"doi": {
		get: func(f *SubmissionFields) string { return f.Publication.Doi },
		set: func(f *SubmissionFields, v string) error { f.Publication.Doi = v; return nil },
	},
	"volume_issue": {
		get: func(f *SubmissionFields) string { return f.Publication.VolumeIssue },
		set: func(f *SubmissionFields, v string) error { f.Publication.VolumeIssue = v; return nil },
	},
	"page_numbers": {
		get: func(f *SubmissionFields) string { return f.Publication.PageNumbers },
		set: func(f *SubmissionFields, v string) error { f.Publication.PageNumbers = v; return nil },
	},
	"publication_year": {
		get: func(f *SubmissionFields) string { return strconv.Itoa(f.Publication.PublicationYear) },
		set: func(f *SubmissionFields, v string) error {
			year, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || year < 1900 || year > 3000 {
				return fmt.Errorf("%w: invalid publication year %q", ErrValidation, v)
			}
			f.Publication.PublicationYear = year
			return nil
		},
	},
}

var grantFields = map[string]fieldAccessor{
	"project_title": {
		get: func(f *SubmissionFields) string { return f.Grant.ProjectTitle },
		set: func(f *SubmissionFields, v string) error { f.Grant.ProjectTitle = v; return nil },
	},
	"grant_type": {
		get: func(f *SubmissionFields) string { return f.Grant.GrantType },
		set: func(f *SubmissionFields, v string) error {
			if !models.ValidGrantType(v) {
				return fmt.Errorf("%w: unknown grant_type %q", ErrValidation, v)
			}
			f.Grant.GrantType = v
			return nil
		},
	},
	"funding_agency": {
		get: func(f *SubmissionFields) string { return f.Grant.FundingAgency },
		set: func(f *SubmissionFields, v string) error { f.Grant.FundingAgency = v; return nil },
	},
	"budget_amount": {
		get: func(f *SubmissionFields) string {
			return strconv.FormatFloat(f.Grant.BudgetAmount, 'f', 2, 64)
		},
		set: func(f *SubmissionFields, v string) error {
			amount, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
			if err != nil || amount < 0 {
				return fmt.Errorf("%w: invalid budget amount %q", ErrValidation, v)
			}
			f.Grant.BudgetAmount = amount
			return nil
		},
	},
	"duration_months": {
		get: func(f *SubmissionFields) string { return strconv.Itoa(f.Grant.DurationMonths) },
		set: func(f *SubmissionFields, v string) error {
			months, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || months <= 0 {
				return fmt.Errorf("%w: invalid duration %q", ErrValidation, v)
			}
			f.Grant.DurationMonths = months
			return nil
		},
	},
	"abstract": {
		get: func(f *SubmissionFields) string { return f.Grant.Abstract },
		set: func(f *SubmissionFields, v string) error { f.Grant.Abstract = v; return nil },
	},
}

func registryForKind(kind string) map[string]fieldAccessor {
	switch kind {
	case models.KindIPR:
		return iprFields
	case models.KindPublication:
		return publicationFields
	case models.KindGrant:
		return grantFields
	}
	return nil
}

func (f *SubmissionFields) detailLoaded() bool {
	switch f.Submission.SubmissionKind {
	case models.KindIPR:
		return f.IPR != nil
	case models.KindPublication:
		return f.Publication != nil
	case models.KindGrant:
		return f.Grant != nil
	}
	return false
}

func lookupField(kind, name string) (fieldAccessor, error) {
	registry := registryForKind(kind)
	if registry == nil {
		return fieldAccessor{}, fmt.Errorf("%w: unknown submission kind %q", ErrValidation, kind)
	}
	accessor, ok := registry[name]
	if !ok {
		return fieldAccessor{}, fmt.Errorf("%w: field %q is not suggestable for %s submissions", ErrValidation, name, kind)
	}
	return accessor, nil
}

// FieldValue reads the current value of a registered field.
func FieldValue(fields *SubmissionFields, name string) (string, error) {
	accessor, err := lookupField(fields.Submission.SubmissionKind, name)
	if err != nil {
		return "", err
	}
	if !fields.detailLoaded() {
		return "", fmt.Errorf("%w: submission %d detail not loaded", ErrValidation, fields.Submission.SubmissionID)
	}
	return accessor.get(fields), nil
}

// ApplyFieldValue writes value into the registered field, validating it
// against the field's type.
func ApplyFieldValue(fields *SubmissionFields, name, value string) error {
	accessor, err := lookupField(fields.Submission.SubmissionKind, name)
	if err != nil {
		return err
	}
	if !fields.detailLoaded() {
		return fmt.Errorf("%w: submission %d detail not loaded", ErrValidation, fields.Submission.SubmissionID)
	}
	return accessor.set(fields, value)
}

// SuggestableFields lists the registered field names for a submission kind.
func SuggestableFields(kind string) []string {
	registry := registryForKind(kind)
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
