package pipeline

// ScrapeSummary reports what a scrape run did.
type ScrapeSummary struct {
	Total       int
	Processed   int
	Skipped     int
	Failed      int
	Interrupted bool
}

// ClassifySummary reports what a classify run did.
type ClassifySummary struct {
	Total         int
	Processed     int
	Skipped       int
	Failed        int
	Interrupted   bool
	TunesTotal    int
	TunesRelevant int
}
