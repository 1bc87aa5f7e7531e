package extractor

import (
	"bufio"
	"encoding/json"
	"strings"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// markerLine is the decoded payload of one incremental marker line, in
// the wire format "<token>: <single-line JSON object>".
type markerLine struct {
	Type types.MarkerType `json:"type"`

	FeatureID      string `json:"feature_id,omitempty"`
	ConstructionID string `json:"construction_id,omitempty"`
	Detail         string `json:"detail,omitempty"`

	Category       string          `json:"category,omitempty"`
	Title          string          `json:"title,omitempty"`
	Severity       types.Severity  `json:"severity,omitempty"`
	SuggestedFix   string          `json:"suggested_fix,omitempty"`
	EffortEstimate string          `json:"effort_estimate,omitempty"`
	NPSImpact      int             `json:"nps_impact,omitempty"`

	Flag string `json:"flag,omitempty"`

	NPS            int  `json:"nps,omitempty"`
	WouldRecommend bool `json:"would_recommend,omitempty"`

	Experience string `json:"experience,omitempty"`
	Roadmap    string `json:"roadmap,omitempty"`
	Vision     string `json:"vision,omitempty"`
}

// extractIncremental collects every line beginning with the
// incremental-marker token, parses it as JSON, and folds it into a
// default-shaped Observation. Unknown types are ignored. Returns false
// if no marker lines were found at all.
func extractIncremental(text string) (*types.Observation, bool) {
	var obs types.Observation
	found := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		payload, ok := splitMarkerLine(line)
		if !ok {
			continue
		}

		var m markerLine
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			continue
		}
		found = true
		applyMarker(&obs, m)
	}

	if !found {
		return nil, false
	}
	return &obs, true
}

// splitMarkerLine recognizes "<token>: <json>" and returns the json
// payload.
func splitMarkerLine(line string) (string, bool) {
	prefix := IncrementalMarkerToken + ":"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
}

// applyMarker folds one marker into obs per its type's fold semantics:
// summary markers (verdict, nps_roadmap, path_to_10, bootstrap)
// overwrite their section; enumerative markers (feature, construction,
// negative, positive, recommendation) append; implicit markers append
// to the implicit-behavior-flag list.
func applyMarker(obs *types.Observation, m markerLine) {
	switch m.Type {
	case types.MarkerFeature:
		obs.FeaturesUsed = append(obs.FeaturesUsed, types.FeatureUsage{FeatureID: m.FeatureID, Detail: m.Detail})
	case types.MarkerConstruction:
		obs.ConstructionsUsed = append(obs.ConstructionsUsed, types.ConstructionUsage{ConstructionID: m.ConstructionID, Detail: m.Detail})
	case types.MarkerNegative:
		obs.NegativeFindings = append(obs.NegativeFindings, types.NegativeFinding{
			Category:       m.Category,
			Title:          m.Title,
			Severity:       m.Severity,
			Detail:         m.Detail,
			SuggestedFix:   m.SuggestedFix,
			EffortEstimate: m.EffortEstimate,
			NPSImpact:      m.NPSImpact,
		})
	case types.MarkerPositive:
		obs.PositiveFindings = append(obs.PositiveFindings, types.PositiveFinding{
			Category: m.Category,
			Title:    m.Title,
			Detail:   m.Detail,
		})
	case types.MarkerImplicit:
		if m.Flag != "" {
			obs.ImplicitBehaviorFlags = append(obs.ImplicitBehaviorFlags, m.Flag)
		}
	case types.MarkerVerdict:
		obs.Verdict = types.Verdict{NPS: m.NPS, WouldRecommend: m.WouldRecommend}
	case types.MarkerBootstrap:
		obs.BootstrapExperience = m.Experience
	case types.MarkerNPSRoadmap:
		obs.NPSImprovementRoadmap = m.Roadmap
	case types.MarkerPathToTen:
		obs.PathToTen = m.Vision
	case types.MarkerRecommendation:
		obs.FixRecommendations = append(obs.FixRecommendations, types.FixRecommendation{Title: m.Title, Detail: m.Detail})
	}
}
