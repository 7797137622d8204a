package domain

import "strings"

// JobKind names a pipeline pass that can be queued for the worker.
type JobKind string

const (
	JobClassify JobKind = "classify"
	JobMatch    JobKind = "match"
)

func ParseJobKind(raw string) (JobKind, bool) {
	switch JobKind(strings.ToLower(strings.TrimSpace(raw))) {
	case JobClassify:
		return JobClassify, true
	case JobMatch:
		return JobMatch, true
	default:
		return "", false
	}
}

type Job struct {
	ID            string  `json:"id"`
	Kind          JobKind `json:"kind"`
	ClearExisting bool    `json:"clear_existing"`
}
