package domain

import "time"

// TimelineEntry is immutable once appended.
type TimelineEntry struct {
	Stage     StageKey    `json:"stage"`
	Status    StageStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// AppendTimeline returns a new log with one more entry stamped at now. Prior
// entries are never reordered or removed.
func AppendTimeline(log []TimelineEntry, stage StageKey, status StageStatus, now time.Time) []TimelineEntry {
	out := make([]TimelineEntry, len(log), len(log)+1)
	copy(out, log)
	return append(out, TimelineEntry{Stage: stage, Status: status, Timestamp: now.UTC()})
}

// CurrentStage derives the active stage from the log: the stage after the most
// recently completed one, the first stage for an empty log, and the terminal
// stage once it has been reached.
func CurrentStage(log []TimelineEntry) StageKey {
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].Status != StageStatusComplete {
			continue
		}
		next, ok := NextStage(log[i].Stage)
		if !ok {
			return log[i].Stage
		}
		return next
	}
	return FirstStage()
}

// StatusOf returns the status of the latest entry for stage, pending if none.
func StatusOf(log []TimelineEntry, stage StageKey) StageStatus {
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].Stage == stage {
			return log[i].Status
		}
	}
	return StageStatusPending
}

// StageProgress is the per-stage view of a timeline.
type StageProgress struct {
	Stage  StageKey    `json:"stage"`
	Label  string      `json:"label"`
	Status StageStatus `json:"status"`
}

func TimelineSummary(log []TimelineEntry) []StageProgress {
	stages := ListStages()
	out := make([]StageProgress, 0, len(stages))
	for _, st := range stages {
		out = append(out, StageProgress{Stage: st.Key, Label: st.Label, Status: StatusOf(log, st.Key)})
	}
	return out
}
