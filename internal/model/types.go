package model

import "errors"

// FieldCount is the number of fields in a classification record.
const FieldCount = 4

// EmptyField marks a field that was queried but has no value upstream.
const EmptyField = "-"

// FieldNames is the fixed column order of a classification record.
var FieldNames = []string{"Macro", "Sector", "Industry", "Basic Industry"}

// ErrNoData reports that a classification fetch completed without error but
// yielded no usable data. It is a miss, not a failure: the symbol stays
// eligible for the next run.
var ErrNoData = errors.New("no classification data")

// Record is a classification record: Macro, Sector, Industry, Basic Industry.
// Each field is either a non-empty value or EmptyField.
type Record []string

// NewRecord builds a record from raw field values, substituting EmptyField
// for blanks. ok is false when every field is blank, in which case the
// caller should report ErrNoData rather than store the record.
func NewRecord(macro, sector, industry, basicIndustry string) (Record, bool) {
	if macro == "" && sector == "" && industry == "" && basicIndustry == "" {
		return nil, false
	}
	return Record{
		orEmpty(macro),
		orEmpty(sector),
		orEmpty(industry),
		orEmpty(basicIndustry),
	}, true
}

func orEmpty(v string) string {
	if v == "" {
		return EmptyField
	}
	return v
}

// Segment identifies an NSE symbol-list partition.
type Segment int

const (
	// SegmentMainboard is the main equity board.
	SegmentMainboard Segment = iota
	// SegmentSME is the small and medium enterprise board.
	SegmentSME
)

// String returns the segment name used in logs.
func (s Segment) String() string {
	switch s {
	case SegmentMainboard:
		return "mainboard"
	case SegmentSME:
		return "sme"
	default:
		return "unknown"
	}
}

// Listing is one row of an NSE symbol list: a ticker and the series it
// trades under.
type Listing struct {
	Symbol string // Ticker (e.g., "RELIANCE")
	Series string // Series code (e.g., "EQ", "BE", "SM", "ST")
}

// Security is one row of the BSE securities list.
type Security struct {
	ScripCode string // BSE numeric scrip code, as a string (e.g., "500325")
	Symbol    string // Scrip ID, the cross-exchange ticker (e.g., "RELIANCE")
}
