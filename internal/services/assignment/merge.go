package assignment

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"dcip/internal/models"
)

// Submission is one surveyor's report as seen by the merger.
type Submission struct {
	SurveyorID     uint
	SurveyorName   string
	Organization   string
	Findings       map[string]interface{}
	RiskLevel      models.RiskLevel
	Recommendation string
}

// ConflictValue is one side of a finding the surveyors disagree on.
type ConflictValue struct {
	SurveyorID   uint        `json:"surveyor_id"`
	Surveyor     string      `json:"surveyor"`
	Organization string      `json:"organization"`
	Value        interface{} `json:"value"`
}

// MergeResult is the combined view of two submissions.
type MergeResult struct {
	Findings       map[string]interface{}
	Conflicts      map[string][]ConflictValue
	RiskLevel      models.RiskLevel
	Recommendation string
}

// MergeReports combines two reports key by key. Keys with equal values, or
// reported by one surveyor only, are kept as findings. Keys with differing
// values go to Conflicts with both sides and are left out of Findings. The
// risk level is the higher of the two.
func MergeReports(a, b Submission) MergeResult {
	res := MergeResult{
		Findings:  make(map[string]interface{}, len(a.Findings)+len(b.Findings)),
		Conflicts: make(map[string][]ConflictValue),
		RiskLevel: a.RiskLevel,
	}

	for key, av := range a.Findings {
		bv, ok := b.Findings[key]
		switch {
		case !ok:
			res.Findings[key] = av
		case reflect.DeepEqual(av, bv):
			res.Findings[key] = av
		default:
			res.Conflicts[key] = []ConflictValue{a.side(av), b.side(bv)}
		}
	}
	for key, bv := range b.Findings {
		if _, ok := a.Findings[key]; !ok {
			res.Findings[key] = bv
		}
	}

	if b.RiskLevel.Rank() > a.RiskLevel.Rank() {
		res.RiskLevel = b.RiskLevel
	}
	res.Recommendation = joinRecommendations(a, b)
	return res
}

func (s Submission) side(v interface{}) ConflictValue {
	return ConflictValue{
		SurveyorID:   s.SurveyorID,
		Surveyor:     s.SurveyorName,
		Organization: s.Organization,
		Value:        v,
	}
}

func (s Submission) label() string {
	name := s.SurveyorName
	if name == "" {
		name = fmt.Sprintf("Surveyor #%d", s.SurveyorID)
	}
	if s.Organization != "" {
		name += " (" + s.Organization + ")"
	}
	return name
}

func joinRecommendations(subs ...Submission) string {
	parts := make([]string, 0, len(subs))
	for _, s := range subs {
		text := strings.TrimSpace(s.Recommendation)
		if text == "" {
			continue
		}
		parts = append(parts, s.label()+": "+text)
	}
	return strings.Join(parts, "\n\n")
}

// ConflictKeys returns the disputed finding keys in order.
func (r MergeResult) ConflictKeys() []string {
	keys := make([]string, 0, len(r.Conflicts))
	for k := range r.Conflicts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
