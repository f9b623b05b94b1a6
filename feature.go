package serpscope

import (
	"fmt"
	"slices"
	"strings"
)

// Feature names a search-result feature.
type Feature string

// Feature constants.
const (
	FeaturedSnippet Feature = "FeaturedSnippet"
	KnowledgePanel  Feature = "KnowledgePanel"
	PeopleAlsoAsk   Feature = "PeopleAlsoAsk"
	ImagePack       Feature = "ImagePack"
	Video           Feature = "Video"
	AIOverview      Feature = "AIOverview"
)

// Features lists every feature in reporting order.
var Features = []Feature{
	FeaturedSnippet,
	KnowledgePanel,
	PeopleAlsoAsk,
	ImagePack,
	Video,
	AIOverview,
}

// Signal names a weak indicator of a feature.
type Signal string

// Signal constants.
const (
	// SignalTextPattern is a localized text pattern match in visible text.
	SignalTextPattern Signal = "text_pattern"
	// SignalNetwork is a background request to the feature's backend.
	SignalNetwork Signal = "network_activity"
)

// FeatureObservation is the evidence gathered for one feature.
type FeatureObservation struct {
	FromStructuredSource bool     `json:"fromStructuredSource"`
	FromRenderedPage     bool     `json:"fromRenderedPage"`
	SupportingSignals    []Signal `json:"supportingSignals,omitempty"`
}

// AddSignal records a weak signal once.
func (o *FeatureObservation) AddSignal(s Signal) {
	if !o.HasSignal(s) {
		o.SupportingSignals = append(o.SupportingSignals, s)
		slices.Sort(o.SupportingSignals)
	}
}

// HasSignal reports whether s was recorded.
func (o FeatureObservation) HasSignal(s Signal) bool {
	return slices.Contains(o.SupportingSignals, s)
}

// HasSignals reports whether any weak signal was recorded.
func (o FeatureObservation) HasSignals() bool {
	return len(o.SupportingSignals) > 0
}

// Observations maps features to their evidence.
type Observations map[Feature]FeatureObservation

// Get returns the observation for f, zero when absent.
func (o Observations) Get(f Feature) FeatureObservation {
	return o[f]
}

// Update applies fn to the observation of f.
func (o Observations) Update(f Feature, fn func(*FeatureObservation)) {
	obs := o[f]
	fn(&obs)
	o[f] = obs
}

// FeatureStatus is the fused confidence tier of a feature.
// Tiers are ordered: Absent < Probable < Confirmed.
type FeatureStatus int

// FeatureStatus constants.
const (
	Absent FeatureStatus = iota
	Probable
	Confirmed
)

// String returns the display label of the status.
func (s FeatureStatus) String() string {
	switch s {
	case Confirmed:
		return "Confirmed"
	case Probable:
		return "Probable"
	default:
		return "Not detected"
	}
}

// Confidence returns the numeric confidence of the status.
func (s FeatureStatus) Confidence() float64 {
	switch s {
	case Confirmed:
		return 1.0
	case Probable:
		return 0.6
	default:
		return 0.0
	}
}

// MarshalText encodes the status label.
func (s FeatureStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status label.
func (s *FeatureStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Confirmed":
		*s = Confirmed
	case "Probable":
		*s = Probable
	case "Not detected":
		*s = Absent
	default:
		return Errorf(EINVALID, "unknown feature status %q", text)
	}
	return nil
}

// Policy selects how structured and rendered evidence are reconciled.
type Policy int

// Policy constants.
const (
	PolicyHybridLenient Policy = iota
	PolicyHybridStrict
	PolicySourceOnly
	PolicyRenderedOnly
)

// Policies lists every policy.
var Policies = []Policy{PolicySourceOnly, PolicyRenderedOnly, PolicyHybridStrict, PolicyHybridLenient}

// String returns the canonical policy name.
func (p Policy) String() string {
	switch p {
	case PolicySourceOnly:
		return "source-only"
	case PolicyRenderedOnly:
		return "rendered-only"
	case PolicyHybridStrict:
		return "hybrid-strict"
	case PolicyHybridLenient:
		return "hybrid-lenient"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name. The legacy names "api", "html" and
// "hybrid" map to source-only, rendered-only and hybrid-lenient.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "source-only", "api":
		return PolicySourceOnly, nil
	case "rendered-only", "html":
		return PolicyRenderedOnly, nil
	case "hybrid-strict":
		return PolicyHybridStrict, nil
	case "hybrid-lenient", "hybrid", "":
		return PolicyHybridLenient, nil
	default:
		return 0, Errorf(EINVALID, "unknown reconciliation policy %q", s)
	}
}

// MarshalText encodes the canonical policy name.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a policy name.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Reconciler fuses observations into statuses under a fixed policy.
type Reconciler struct {
	Policy Policy
	// PromoteSignals confirms features seen only through weak signals under
	// PolicyHybridLenient. Only enable it when the signals have been
	// validated for the locale.
	PromoteSignals bool
}

// Fuse returns the status of a single observation.
func (r Reconciler) Fuse(obs FeatureObservation) FeatureStatus {
	switch r.Policy {
	case PolicySourceOnly:
		if obs.FromStructuredSource {
			return Confirmed
		}
		return Absent
	case PolicyRenderedOnly:
		if obs.FromRenderedPage {
			return Confirmed
		}
		return Absent
	case PolicyHybridStrict:
		if obs.FromStructuredSource || obs.FromRenderedPage {
			return Confirmed
		}
		return Absent
	case PolicyHybridLenient:
		if obs.FromStructuredSource || obs.FromRenderedPage {
			return Confirmed
		}
		if obs.HasSignals() {
			if r.PromoteSignals {
				return Confirmed
			}
			return Probable
		}
		return Absent
	default:
		return Absent
	}
}

// FuseAll returns the status of every feature in Features.
func (r Reconciler) FuseAll(obs Observations) map[Feature]FeatureStatus {
	statuses := make(map[Feature]FeatureStatus, len(Features))
	for _, f := range Features {
		statuses[f] = r.Fuse(obs.Get(f))
	}
	return statuses
}

// Fuse returns the status of obs under policy without signal promotion.
func Fuse(obs FeatureObservation, policy Policy) FeatureStatus {
	return Reconciler{Policy: policy}.Fuse(obs)
}

// MarkerDetector finds the structural markers of features in a rendered
// document.
type MarkerDetector interface {
	DetectMarkers(html string) (map[Feature]bool, error)
}
