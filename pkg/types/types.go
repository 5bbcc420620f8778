package types

import (
	"time"

	"github.com/opencontainers/go-digest"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

type ModelResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration,omitempty"`
	LogFile  string        `json:"logFile,omitempty"`
	Message  string        `json:"message,omitempty"`
}

type Report struct {
	ID           string        `json:"id"`
	Started      time.Time     `json:"started"`
	Finished     time.Time     `json:"finished"`
	Mode         string        `json:"mode"`
	Inference    string        `json:"inference"`
	Backend      string        `json:"backend"`
	ConfigPath   string        `json:"configPath"`
	ConfigDigest digest.Digest `json:"configDigest,omitempty"`
	Status       string        `json:"status"`
	Results      []ModelResult `json:"results"`
	Skipped      []string      `json:"skipped,omitempty"`
	BundleDigest digest.Digest `json:"bundleDigest,omitempty"`
	BundleURL    string        `json:"bundleURL,omitempty"`
}

func (r Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// RunRecord is the summary of a Report kept in run history.
type RunRecord struct {
	ID        string    `json:"id"`
	Started   time.Time `json:"started"`
	Mode      string    `json:"mode"`
	Inference string    `json:"inference"`
	Backend   string    `json:"backend"`
	Status    string    `json:"status"`
	Models    int       `json:"models"`
	Failed    string    `json:"failed,omitempty"`
	Duration  string    `json:"duration"`
	BundleURL string    `json:"bundleURL,omitempty"`
}

func (r Report) Record() RunRecord {
	record := RunRecord{
		ID:        r.ID,
		Started:   r.Started,
		Mode:      r.Mode,
		Inference: r.Inference,
		Backend:   r.Backend,
		Status:    r.Status,
		Models:    len(r.Results) + len(r.Skipped),
		Duration:  r.Duration().Round(time.Millisecond).String(),
		BundleURL: r.BundleURL,
	}
	for _, result := range r.Results {
		if result.Status == StatusFailed {
			record.Failed = result.Name
		}
	}
	return record
}
