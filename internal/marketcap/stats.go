package marketcap

// Stats accumulates per-strategy resolution counts across a run. Exactly
// one of the outcome counters is incremented per Resolve call, alongside
// Total. Read at end of run for reporting; never reset mid-run.
type Stats struct {
	YahooHistorical int
	FMP             int
	Calculated      int
	YahooCurrent    int
	Failed          int
	Total           int
}

// Successful returns the number of calls that produced a value.
func (s *Stats) Successful() int {
	return s.Total - s.Failed
}

// BySource returns the counter for a strategy identifier.
func (s *Stats) BySource(source string) int {
	switch source {
	case SourceYahooHistorical:
		return s.YahooHistorical
	case SourceFMP:
		return s.FMP
	case SourceCalculated:
		return s.Calculated
	case SourceYahooCurrent:
		return s.YahooCurrent
	case SourceNone:
		return s.Failed
	default:
		return 0
	}
}
