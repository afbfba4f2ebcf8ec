package domain

import "time"

// JobState tracks a watch job through its lifecycle.
type JobState string

const (
	// JobInit is the created-but-not-started state.
	JobInit JobState = "init"

	// JobFetching means pages are being retrieved. The state does not
	// change while the fetcher waits out rate-limit backoff.
	JobFetching JobState = "fetching"

	// JobScoring covers the per-record score/dedup/buffer stages.
	JobScoring JobState = "scoring"

	// JobFlushing means the final partial batch is being committed.
	JobFlushing JobState = "flushing"

	// JobDone is the successful terminal state.
	JobDone JobState = "done"

	// JobFailed is the unrecoverable terminal state. A failed job is
	// never resumed in place; retrying means a new job for the same
	// query.
	JobFailed JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// Job is the mutable bookkeeping for one watch invocation. It is
// owned exclusively by the pipeline that created it and is summarised
// and discarded at completion.
type Job struct {
	// ID uniquely identifies this invocation.
	ID string

	// Query is the watch query the job runs.
	Query Query

	// State is the current lifecycle state.
	State JobState

	// PagesFetched counts successfully retrieved pages.
	PagesFetched int

	// TotalExpected is the upstream-reported total record count, 0
	// until the first page arrives.
	TotalExpected int

	// Persisted counts records committed to the durable store.
	Persisted int

	// Duplicates counts records dropped because their content hash
	// was already seen.
	Duplicates int

	// Filtered counts records scored below the relevance threshold.
	Filtered int

	// Errors counts malformed records that could not be parsed.
	Errors int

	// Observed counts every record the pipeline saw: parsed records
	// plus malformed ones. At completion
	// Persisted + Duplicates + Filtered + Errors == Observed.
	Observed int

	// FailedPages lists page indexes that exhausted their retries.
	FailedPages []int

	// StartedAt is when the job left JobInit.
	StartedAt time.Time
}

// Summary is the immutable result handed back to the caller when a
// job reaches a terminal state.
type Summary struct {
	JobID string   `json:"job_id"`
	State JobState `json:"state"`

	Target   string `json:"target"`
	Dates    string `json:"dates"`
	Tribunal string `json:"tribunal,omitempty"`

	PagesFetched  int   `json:"pages_fetched"`
	TotalExpected int   `json:"total_expected"`
	FailedPages   []int `json:"failed_pages,omitempty"`

	Persisted  int `json:"persisted"`
	Duplicates int `json:"duplicates"`
	Filtered   int `json:"filtered"`
	Errors     int `json:"errors"`
	Observed   int `json:"observed"`

	// BatchCommits is how many durable-store transactions were issued.
	BatchCommits int `json:"batch_commits"`

	// CacheHit is true when the whole-query cache satisfied the job
	// and no fetching or scoring happened.
	CacheHit bool `json:"cache_hit"`

	// ScoreBands buckets persisted scores for the report
	// ("0.9-1.0", "0.7-0.9", "0.5-0.7", "0.3-0.5").
	ScoreBands map[string]int `json:"score_bands,omitempty"`

	// Tribunals is the distinct set of courts among persisted records.
	Tribunals []string `json:"tribunals,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Summarise freezes the job's counters into a Summary.
func (j *Job) Summarise(elapsed time.Duration) Summary {
	return Summary{
		JobID:         j.ID,
		State:         j.State,
		Target:        j.Query.Target.String(),
		Dates:         j.Query.Dates.String(),
		Tribunal:      j.Query.Tribunal,
		PagesFetched:  j.PagesFetched,
		TotalExpected: j.TotalExpected,
		FailedPages:   j.FailedPages,
		Persisted:     j.Persisted,
		Duplicates:    j.Duplicates,
		Filtered:      j.Filtered,
		Errors:        j.Errors,
		Observed:      j.Observed,
		Elapsed:       elapsed,
	}
}
