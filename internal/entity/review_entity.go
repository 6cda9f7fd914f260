package entity

import (
	"fmt"
	"time"
)

const (
	PublishScopePublic   = "public"
	PublishScopeUnlisted = "unlisted"
	PublishScopePrivate  = "private"
	PublishScopeInternal = "internal"
)

const (
	RedactModeNone   = "none"
	RedactModeLight  = "light"
	RedactModeStrict = "strict"
)

const (
	VerdictOk   = "ok"
	VerdictWarn = "warn"
	VerdictBad  = "bad"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ReviewState is the lifecycle position of a review. Only created and
// rechecked are ever persisted; patched lives on the caller's side and
// released is the terminal answer of a release call.
type ReviewState string

const (
	ReviewStateCreated   ReviewState = "created"
	ReviewStatePatched   ReviewState = "patched"
	ReviewStateRechecked ReviewState = "rechecked"
	ReviewStateReleased  ReviewState = "released"
)

// Settings is carried unchanged through every call of a review cycle.
type Settings struct {
	PublishScope string `json:"publishScope"`
	Tone         string `json:"tone"`
	Audience     string `json:"audience"`
	RedactMode   string `json:"redactMode"`
}

type Highlight struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

type Finding struct {
	Id         string      `json:"id"`
	Category   string      `json:"category"`
	Severity   string      `json:"severity"`
	Title      string      `json:"title"`
	Reason     string      `json:"reason"`
	Suggestion string      `json:"suggestion"`
	Highlights []Highlight `json:"highlights"`
	Tags       []string    `json:"tags,omitempty"`
}

type SeverityCount struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

type ReportSummary struct {
	TotalFindings int            `json:"totalFindings"`
	BySeverity    SeverityCount  `json:"bySeverity"`
	ByCategory    map[string]int `json:"byCategory"`
}

type HighlightItem struct {
	FindingId string `json:"findingId"`
	Text      string `json:"text"`
}

// HighlightIndex is the flat finding id -> literal text index used for UI anchoring.
type HighlightIndex struct {
	Mode  string          `json:"mode"`
	Items []HighlightItem `json:"items"`
}

type Report struct {
	Verdict    string         `json:"verdict"`
	Score      int            `json:"score"`
	Summary    ReportSummary  `json:"summary"`
	Findings   []Finding      `json:"findings"`
	Highlights HighlightIndex `json:"highlights"`
}

// FindFinding returns the finding with the given id.
func (r *Report) FindFinding(id string) (*Finding, bool) {
	for i := range r.Findings {
		if r.Findings[i].Id == id {
			return &r.Findings[i], true
		}
	}
	return nil, false
}

// CheckIntegrity verifies the summary count and that every flat highlight
// points at an existing finding.
func (r *Report) CheckIntegrity() error {
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("score %d out of range [0,100]", r.Score)
	}
	if r.Summary.TotalFindings != len(r.Findings) {
		return fmt.Errorf("summary.totalFindings=%d but %d findings", r.Summary.TotalFindings, len(r.Findings))
	}
	ids := make(map[string]struct{}, len(r.Findings))
	for _, f := range r.Findings {
		if _, dup := ids[f.Id]; dup {
			return fmt.Errorf("duplicate finding id %q", f.Id)
		}
		ids[f.Id] = struct{}{}
	}
	for _, item := range r.Highlights.Items {
		if _, ok := ids[item.FindingId]; !ok {
			return fmt.Errorf("highlight references unknown finding %q", item.FindingId)
		}
	}
	return nil
}

// Clone returns a deep copy, so a stored report never shares slices or maps
// with a caller.
func (r Report) Clone() Report {
	out := r
	out.Summary.ByCategory = make(map[string]int, len(r.Summary.ByCategory))
	for k, v := range r.Summary.ByCategory {
		out.Summary.ByCategory[k] = v
	}
	out.Findings = make([]Finding, len(r.Findings))
	for i, f := range r.Findings {
		f.Highlights = append([]Highlight(nil), f.Highlights...)
		f.Tags = append([]string(nil), f.Tags...)
		out.Findings[i] = f
	}
	out.Highlights.Items = append([]HighlightItem(nil), r.Highlights.Items...)
	return out
}

// ReviewRecord is the persisted unit. It is only ever replaced whole.
type ReviewRecord struct {
	ReviewId  string
	Document  string
	Settings  Settings
	Report    Report
	State     ReviewState
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *ReviewRecord) Clone() *ReviewRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Report = r.Report.Clone()
	return &out
}

// Patch is a proposed fix for one finding. OriginalText is expected to be a
// literal substring of the document the patch was requested against.
type Patch struct {
	PatchId      string `json:"-"`
	FindingId    string `json:"-"`
	OriginalText string `json:"originalText"`
	Replacement  string `json:"replacement"`
	Note         string `json:"note,omitempty"`
}

type ReleaseArtifact struct {
	SafeMarkdown   string   `json:"safeMarkdown"`
	FixSummary     []string `json:"fixSummary"`
	Checklist      []string `json:"checklist"`
	PublishedScope string   `json:"publishedScope"`
}

type PersonaSummary struct {
	Total      int           `json:"total"`
	BySeverity SeverityCount `json:"bySeverity"`
}

type PersonaItem struct {
	Id         string      `json:"id"`
	Severity   string      `json:"severity"`
	Title      string      `json:"title"`
	Reason     string      `json:"reason"`
	Suggestion string      `json:"suggestion"`
	Highlights []Highlight `json:"highlights"`
}

type PersonaReport struct {
	Audience string         `json:"audience"`
	Verdict  string         `json:"verdict"`
	Summary  PersonaSummary `json:"summary"`
	Items    []PersonaItem  `json:"items"`
}
