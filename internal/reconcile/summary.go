package reconcile

// Summary is the counter block rendered at the top of every report: the
// report length, one count per status, and the severity breakdown. Severity
// counters count the severity column, so Severe includes Removed records.
type Summary struct {
	Total      int
	NoChange   int
	Modified   int
	NewlyAdded int
	Removed    int
	Severe     int
	Moderate   int
	Minor      int
}

// Summarize reduces a report to its summary counters. Pure reduction with no
// independent lifecycle; safe to recompute on demand.
func Summarize(report *Report) Summary {
	var s Summary
	for _, rec := range report.Records {
		s.Total++
		switch rec.Status {
		case StatusNoChange:
			s.NoChange++
		case StatusModified:
			s.Modified++
		case StatusNewlyAdded:
			s.NewlyAdded++
		case StatusRemoved:
			s.Removed++
		}
		switch rec.Severity {
		case SeveritySevere:
			s.Severe++
		case SeverityModerate:
			s.Moderate++
		case SeverityMinor:
			s.Minor++
		}
	}
	return s
}
