package importing

import (
	"strings"
)

// Column layout of the legacy system's user export. The schema is fixed and
// known ahead of time; files are produced by the predecessor's export tool.
const (
	colLegacyUserID = iota
	colEmail
	colFirstName
	colLastName
	colSchoolName
	colCountry
	colStage1
	columnCount
)

// RawRow is one line of the export decoded into named fields. It is consumed
// by the validator immediately and never persisted.
type RawRow struct {
	Line         int
	LegacyUserID string
	Email        string
	FirstName    string
	LastName     string
	SchoolName   string
	Country      string
	// Stage1 holds the legacy stage-1 enrollment marker. The old system
	// kept incomplete signup attempts; those rows have no stage data.
	Stage1 string

	// ParseError is set when the source line could not be decoded; the
	// validator turns it into a Failed outcome.
	ParseError string
}

type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// ValidatedRow annotates a RawRow with its outcome. Every RawRow produces
// exactly one ValidatedRow.
type ValidatedRow struct {
	Row     RawRow
	Outcome Outcome
	Reason  string
}

// Candidate is the migration payload derived from a valid row.
type Candidate struct {
	LegacyUserID         string
	Email                string
	FirstName            string
	LastName             string
	SchoolName           string
	NormalizedSchoolName string
	Country              string
}

func NewCandidate(row RawRow, normalizeSchoolName func(string) string) Candidate {
	schoolName := strings.TrimSpace(row.SchoolName)
	return Candidate{
		LegacyUserID:         strings.TrimSpace(row.LegacyUserID),
		Email:                strings.TrimSpace(row.Email),
		FirstName:            strings.TrimSpace(row.FirstName),
		LastName:             strings.TrimSpace(row.LastName),
		SchoolName:           schoolName,
		NormalizedSchoolName: normalizeSchoolName(schoolName),
		Country:              strings.ToUpper(strings.TrimSpace(row.Country)),
	}
}
