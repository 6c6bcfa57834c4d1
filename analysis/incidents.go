// Package analysis implements the log extraction and column-allocation
// engine. This file groups WARN/ERROR lines into logical incidents for
// downstream summarization; grouping is not used by the extraction
// engine itself.
package analysis

import (
	"sort"
	"time"

	"github.com/nfairburn/chartlog/parser"
)

// IncidentLog accumulates WARN/ERROR lines grouped by normalized
// message body.
type IncidentLog struct {
	byKey map[string]*Incident
	order []string
}

// NewIncidentLog returns an empty incident collector.
func NewIncidentLog() *IncidentLog {
	return &IncidentLog{byKey: map[string]*Incident{}}
}

// Add records one WARN/ERROR line. Lines whose normalized bodies are
// identical join the same incident.
func (l *IncidentLog) Add(level, message string, instant time.Time) {
	key := level + "\x00" + parser.NormalizeIncident(message)
	inc, ok := l.byKey[key]
	if !ok {
		inc = &Incident{
			Level:      level,
			Normalized: parser.NormalizeIncident(message),
			Sample:     message,
			First:      instant,
			Last:       instant,
		}
		l.byKey[key] = inc
		l.order = append(l.order, key)
	}
	inc.Count++
	if instant.Before(inc.First) {
		inc.First = instant
	}
	if instant.After(inc.Last) {
		inc.Last = instant
	}
}

// Merge folds another collector's incidents into this one.
func (l *IncidentLog) Merge(other *IncidentLog) {
	for _, key := range other.order {
		o := other.byKey[key]
		inc, ok := l.byKey[key]
		if !ok {
			cp := *o
			l.byKey[key] = &cp
			l.order = append(l.order, key)
			continue
		}
		inc.Count += o.Count
		if o.First.Before(inc.First) {
			inc.First = o.First
		}
		if o.Last.After(inc.Last) {
			inc.Last = o.Last
		}
	}
}

// Incidents returns the grouped incidents, most frequent first; ties
// keep first-seen order.
func (l *IncidentLog) Incidents() []*Incident {
	out := make([]*Incident, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
