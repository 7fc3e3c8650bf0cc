package content

import "time"

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02T15:04:05"
)

// Record is one content item as emitted by a source adapter.
type Record struct {
	Title     string
	URL       string
	Published time.Time
	// HasTime marks sources that publish a meaningful time of day.
	HasTime  bool
	Platform string
}

// Valid reports whether the record may go downstream.
func (r Record) Valid() bool {
	return r.URL != "" && !r.Published.IsZero()
}

// Date returns the publish date as YYYY-MM-DD in UTC.
func (r Record) Date() string {
	return r.Published.UTC().Format(dateLayout)
}

// Timestamp is the value written to the store's date field.
func (r Record) Timestamp() string {
	if r.HasTime {
		return r.Published.UTC().Format(datetimeLayout)
	}
	return r.Date()
}

// StoredRecord is an item already present in the content store.
type StoredRecord struct {
	ID        string
	Title     string
	URL       string
	Published string
	Platform  string
}

// Date returns the calendar-date prefix of Published.
func (s StoredRecord) Date() string {
	if len(s.Published) < len(dateLayout) {
		return s.Published
	}
	return s.Published[:len(dateLayout)]
}

// SourceSummary holds the per-source counters of a run.
type SourceSummary struct {
	Name     string
	Endpoint string
	Fetched  int
	Created  int
	Skipped  int
	Degraded int
	Errored  int
	Failed   bool
	Reason   string
}

// Summary is the result of one ingestion run. It is never persisted.
type Summary struct {
	RunID    string
	Created  int
	Skipped  int
	Degraded int
	Errored  int
	Sources  []SourceSummary
}

// Processed is the number of records that reached the reconciler.
func (s Summary) Processed() int {
	total := 0
	for _, src := range s.Sources {
		total += src.Fetched
	}
	return total
}

// Add folds a finished source into the run totals.
func (s *Summary) Add(src SourceSummary) {
	s.Created += src.Created
	s.Skipped += src.Skipped
	s.Degraded += src.Degraded
	s.Errored += src.Errored
	s.Sources = append(s.Sources, src)
}

// DayCount is one point of the activity series.
type DayCount struct {
	Date  string
	Count int
}
