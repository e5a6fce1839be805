package models

import "time"

// StructuredFilter is a bounded set of optional read predicates over
// Document fields. It is the only query representation the document
// repository accepts: the type cannot express a mutation, which is what
// eliminates the injection surface of model-generated query code.
//
// Text fields translate to partial case-insensitive matches; the date
// pair is a half-open range [DateFrom, DateTo).
type StructuredFilter struct {
	GrNo      *string
	Branch    *string
	SubjectEn *string
	SubjectGu *string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// IsZero reports whether no predicate is set.
func (f *StructuredFilter) IsZero() bool {
	return f.GrNo == nil && f.Branch == nil && f.SubjectEn == nil &&
		f.SubjectGu == nil && f.DateFrom == nil && f.DateTo == nil
}
