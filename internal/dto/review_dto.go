package dto

import (
	"risk-review-be/internal/entity"
	"risk-review-be/pkg/patch"
)

const (
	MockAuto = "auto"
	MockOn   = "on"
	MockOff  = "off"
)

type SettingsRequest struct {
	PublishScope string `json:"publishScope" validate:"required,oneof=public unlisted private internal"`
	Tone         string `json:"tone" validate:"required,oneof=neutral casual formal technical"`
	Audience     string `json:"audience" validate:"required,oneof=engineers general internal executives"`
	RedactMode   string `json:"redactMode" validate:"required,oneof=none light strict"`
}

func (s SettingsRequest) ToEntity() entity.Settings {
	return entity.Settings{
		PublishScope: s.PublishScope,
		Tone:         s.Tone,
		Audience:     s.Audience,
		RedactMode:   s.RedactMode,
	}
}

// RequestConfig is the per-request knob block. A missing block means
// mock "auto" and the default reviewer timeout.
type RequestConfig struct {
	Mock           string `json:"mock" validate:"omitempty,oneof=auto on off"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty" validate:"omitempty,min=1,max=600"`
}

func (c *RequestConfig) MockMode() string {
	if c == nil || c.Mock == "" {
		return MockAuto
	}
	return c.Mock
}

func (c *RequestConfig) Timeout() int {
	if c == nil {
		return 0
	}
	return c.TimeoutSeconds
}

// --- Reviews ---

type CreateReviewRequest struct {
	Text     string          `json:"text" validate:"required"`
	Settings SettingsRequest `json:"settings"`
	Config   *RequestConfig  `json:"config,omitempty"`
}

type RecheckRequest struct {
	ReviewId string          `json:"-" validate:"required"`
	Text     string          `json:"text" validate:"required"`
	Settings SettingsRequest `json:"settings"`
	Config   *RequestConfig  `json:"config,omitempty"`
}

type ReviewResponse struct {
	ReviewId string        `json:"reviewId"`
	Report   entity.Report `json:"report"`
}

type ShowReviewResponse struct {
	ReviewId string          `json:"reviewId"`
	Text     string          `json:"text"`
	Settings entity.Settings `json:"settings"`
	Report   entity.Report   `json:"report"`
	State    string          `json:"state"`
	Version  int             `json:"version"`
}

// --- Patches ---

type PatchRequest struct {
	ReviewId  string         `json:"reviewId" validate:"required"`
	FindingId string         `json:"findingId" validate:"required"`
	Text      string         `json:"text" validate:"required"`
	Config    *RequestConfig `json:"config,omitempty"`
}

type PatchApply struct {
	Mode         string `json:"mode"`
	OriginalText string `json:"originalText"`
	Replacement  string `json:"replacement"`
}

type PatchResponse struct {
	PatchId   string      `json:"patchId"`
	FindingId string      `json:"findingId"`
	Before    string      `json:"before"`
	After     string      `json:"after"`
	Apply     PatchApply  `json:"apply"`
	Range     *patch.Span `json:"range,omitempty"`
}

type BatchPatchRequest struct {
	ReviewId string `json:"reviewId" validate:"required"`
	// FindingIds restricts the batch; empty means every finding of the
	// stored report. Edits are always applied in report order.
	FindingIds []string       `json:"findingIds,omitempty" validate:"omitempty,dive,required"`
	Text       string         `json:"text" validate:"required"`
	Config     *RequestConfig `json:"config,omitempty"`
}

type BatchPatchResponse struct {
	ReviewId string          `json:"reviewId"`
	Text     string          `json:"text"`
	Patches  []PatchResponse `json:"patches"`
	Outcomes []patch.Outcome `json:"outcomes"`
	Counts   map[string]int  `json:"counts"`
}

// EditRequest bounds are checked per edit by the applier; a bad span
// rejects that edit only.
type EditRequest struct {
	FindingId   string `json:"findingId"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Anchor      string `json:"anchor,omitempty"`
	Replacement string `json:"replacement"`
}

type ApplyEditsRequest struct {
	Text  string        `json:"text"`
	Edits []EditRequest `json:"edits" validate:"required,min=1,dive"`
}

type ApplyEditsResponse struct {
	Text     string          `json:"text"`
	Outcomes []patch.Outcome `json:"outcomes"`
	Counts   map[string]int  `json:"counts"`
}

// --- Release & persona ---

type ReleaseRequest struct {
	ReviewId string          `json:"reviewId" validate:"required"`
	Text     string          `json:"text" validate:"required"`
	Settings SettingsRequest `json:"settings"`
	Config   *RequestConfig  `json:"config,omitempty"`
}

type ReleaseResponse struct {
	ReleaseId      string   `json:"releaseId"`
	Verdict        string   `json:"verdict"`
	SafeMarkdown   string   `json:"safeMarkdown"`
	FixSummary     []string `json:"fixSummary"`
	Checklist      []string `json:"checklist"`
	PublishedScope string   `json:"publishedScope"`
}

type PersonaReviewRequest struct {
	Text     string          `json:"text" validate:"required"`
	Settings SettingsRequest `json:"settings"`
	Config   *RequestConfig  `json:"config,omitempty"`
}

type PersonaReviewResponse = entity.PersonaReport
