// Package query turns model-proposed filter intent into a bounded,
// read-only StructuredFilter. The model never supplies query text, only
// schema-constrained intent fields, and this deterministic translator
// is the single place they become predicates.
package query

import (
	"fmt"
	"time"

	"finbot/internal/domain"
	"finbot/internal/domain/models"
)

// Intent field names form a closed set. Anything else is rejected
// before translation, and the output type cannot represent a write, so
// there is nothing downstream to sanitize.
const (
	fieldGrNo      = "gr_no"
	fieldBranch    = "branch"
	fieldSubjectEn = "subject_en"
	fieldSubjectGu = "subject_gu"
	fieldDate      = "date"
	fieldFromDate  = "from_date"
	fieldToDate    = "to_date"
)

// Translate maps recognized intent fields to filter predicates:
//
//	gr_no, branch, subject_en, subject_gu -> partial case-insensitive match
//	date (single value)                   -> half-open range for the day,
//	                                         month, or year it names
//	from_date / to_date                   -> explicit half-open range [from, to)
//
// Empty string values are treated as absent. An unrecognized field or a
// non-string value yields an UnsupportedIntentError.
func Translate(intent map[string]interface{}) (*models.StructuredFilter, error) {
	filter := &models.StructuredFilter{}

	for field, raw := range intent {
		value, ok := raw.(string)
		if !ok {
			return nil, &domain.UnsupportedIntentError{Field: field}
		}
		if value == "" {
			continue
		}

		switch field {
		case fieldGrNo:
			filter.GrNo = &value
		case fieldBranch:
			filter.Branch = &value
		case fieldSubjectEn:
			filter.SubjectEn = &value
		case fieldSubjectGu:
			filter.SubjectGu = &value
		case fieldDate:
			from, to, err := parseDateRange(value)
			if err != nil {
				return nil, err
			}
			filter.DateFrom = &from
			filter.DateTo = &to
		case fieldFromDate:
			from, err := parseDay(value)
			if err != nil {
				return nil, err
			}
			filter.DateFrom = &from
		case fieldToDate:
			// to_date is inclusive in the tool contract; the filter's
			// upper bound is exclusive, hence the day after.
			to, err := parseDay(value)
			if err != nil {
				return nil, err
			}
			end := to.AddDate(0, 0, 1)
			filter.DateTo = &end
		default:
			return nil, &domain.UnsupportedIntentError{Field: field}
		}
	}

	return filter, nil
}

// parseDateRange converts a single date value to a half-open range:
// "2024-01-15" covers that day, "2024-01" the month, "2024" the year.
func parseDateRange(value string) (time.Time, time.Time, error) {
	if day, err := time.Parse("2006-01-02", value); err == nil {
		return day, day.AddDate(0, 0, 1), nil
	}
	if month, err := time.Parse("2006-01", value); err == nil {
		return month, month.AddDate(0, 1, 0), nil
	}
	if year, err := time.Parse("2006", value); err == nil {
		return year, year.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unrecognized date %q: %w", value, domain.ErrMalformedArguments)
}

// parseDay parses an explicit range bound, which must name a full day.
func parseDay(value string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", value, domain.ErrMalformedArguments)
	}
	return day, nil
}
