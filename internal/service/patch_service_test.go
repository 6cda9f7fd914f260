package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"risk-review-be/internal/dto"
	"risk-review-be/internal/entity"
	"risk-review-be/internal/pkg/apperror"
	"risk-review-be/pkg/events"
	"risk-review-be/pkg/llm"
	"risk-review-be/pkg/patch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactDoc = "Contact: Jane Doe, jane@co.example"

func createLive(t *testing.T, f *fixture, text string, findings ...entity.Finding) string {
	t.Helper()
	f.live.set(llm.TaskReport, reportJSON(t, entity.VerdictWarn, 50, findings...))
	res, err := f.reviews.Create(context.Background(), &dto.CreateReviewRequest{Text: text, Settings: testSettings, Config: live()})
	require.NoError(t, err)
	return res.ReviewId
}

func TestRequestPatchAnchorsOnFirstHighlight(t *testing.T) {
	f := defaultFixture(t)
	fd := finding("f_001", entity.SeverityHigh, "Jane Doe, jane@co.example")
	fd.Highlights = append(fd.Highlights, entity.Highlight{Text: "Contact", Context: "second"})
	id := createLive(t, f, contactDoc, fd)
	f.live.set(llm.TaskPatch, []byte(`{"originalText":"Jane Doe, jane@co.example","replacement":"[redacted]"}`))

	res, err := f.patches.RequestPatch(context.Background(), &dto.PatchRequest{ReviewId: id, FindingId: "f_001", Text: contactDoc, Config: live()})
	require.NoError(t, err)

	assert.Regexp(t, `^ptc_[0-9a-f]{16}$`, res.PatchId)
	assert.Equal(t, "f_001", res.FindingId)
	assert.Equal(t, "Jane Doe, jane@co.example", res.Before)
	assert.Equal(t, "[redacted]", res.After)
	assert.Equal(t, dto.PatchApply{Mode: "replaceText", OriginalText: "Jane Doe, jane@co.example", Replacement: "[redacted]"}, res.Apply)
	require.NotNil(t, res.Range)
	assert.Equal(t, patch.Span{Start: 9, End: 34}, *res.Range)

	assert.Equal(t, "Jane Doe, jane@co.example", f.live.calls[len(f.live.calls)-1].Anchor)
	assert.Contains(t, f.publisher.types(), events.ReviewPatchRequested)

	// the store is untouched by patching
	shown, err := f.reviews.Show(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, shown.Version)
	assert.Equal(t, contactDoc, shown.Text)
}

func TestRequestPatchNotFound(t *testing.T) {
	f := defaultFixture(t)
	id := createLive(t, f, contactDoc, finding("f_001", entity.SeverityHigh, "Jane Doe"))

	_, err := f.patches.RequestPatch(context.Background(), &dto.PatchRequest{ReviewId: "rev_unknown", FindingId: "f_001", Text: contactDoc})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.patches.RequestPatch(context.Background(), &dto.PatchRequest{ReviewId: id, FindingId: "f_404", Text: contactDoc})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, 0, f.live.callCount(llm.TaskPatch))
}

func TestRequestPatchUnlocatedHasNoRange(t *testing.T) {
	f := defaultFixture(t)
	id := createLive(t, f, contactDoc, finding("f_001", entity.SeverityHigh, "Jane Doe"))
	f.live.set(llm.TaskPatch, []byte(`{"originalText":"John Roe","replacement":"[redacted]"}`))

	res, err := f.patches.RequestPatch(context.Background(), &dto.PatchRequest{ReviewId: id, FindingId: "f_001", Text: contactDoc, Config: live()})
	require.NoError(t, err)
	assert.Nil(t, res.Range)
}

func TestRequestPatchMalformedOutput(t *testing.T) {
	f := defaultFixture(t)
	id := createLive(t, f, contactDoc, finding("f_001", entity.SeverityHigh, "Jane Doe"))
	f.live.set(llm.TaskPatch, []byte(`{"originalText":"Jane Doe"}`))

	_, err := f.patches.RequestPatch(context.Background(), &dto.PatchRequest{ReviewId: id, FindingId: "f_001", Text: contactDoc, Config: live()})
	assert.Equal(t, apperror.KindUpstreamMalformed, apperror.KindOf(err))
}

func TestRequestBatchAppliesInReportOrder(t *testing.T) {
	f := defaultFixture(t)
	doc := "name: Jane Doe, host: internal.corp.example.net, again Jane Doe"
	id := createLive(t, f, doc,
		finding("f_001", entity.SeverityHigh, "Jane Doe"),
		finding("f_002", entity.SeverityMedium, "internal.corp.example.net"),
		finding("f_003", entity.SeverityLow, "not in the text"),
	)

	// ids given out of order; report order wins
	res, err := f.patches.RequestBatch(context.Background(), &dto.BatchPatchRequest{
		ReviewId:   id,
		FindingIds: []string{"f_003", "f_002", "f_001"},
		Text:       doc,
		Config:     live(),
	})
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "f_001", res.Outcomes[0].FindingID)
	assert.Equal(t, patch.StatusApplied, res.Outcomes[0].Status)
	assert.Equal(t, patch.StatusApplied, res.Outcomes[1].Status)
	assert.Equal(t, patch.StatusRejected, res.Outcomes[2].Status)
	assert.Equal(t, patch.ReasonAnchorNotFound, res.Outcomes[2].Reason)
	assert.Equal(t, map[string]int{"applied": 2, "degraded": 0, "rejected": 1}, res.Counts)
	assert.Equal(t, "name: <Jane Doe>, host: <internal.corp.example.net>, again Jane Doe", res.Text)
	assert.Len(t, res.Patches, 3)
}

func TestRequestBatchSharedAnchorIsConsumedOnce(t *testing.T) {
	f := defaultFixture(t)
	doc := "mail jane@co.example now please"
	id := createLive(t, f, doc,
		finding("f_001", entity.SeverityHigh, "jane@co.example"),
		finding("f_002", entity.SeverityMedium, "jane@co.example"),
	)
	f.live.set(llm.TaskPatch, []byte(`{"originalText":"jane@co.example","replacement":"[email]"}`))

	res, err := f.patches.RequestBatch(context.Background(), &dto.BatchPatchRequest{ReviewId: id, Text: doc, Config: live()})
	require.NoError(t, err)

	assert.Equal(t, "mail [email] now please", res.Text)
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, patch.StatusApplied, res.Outcomes[0].Status)
	assert.Equal(t, patch.StatusRejected, res.Outcomes[1].Status)
	assert.Equal(t, patch.ReasonAnchorNotFound, res.Outcomes[1].Reason)
	// both patches still report where their anchor sat in the request text
	require.NotNil(t, res.Patches[1].Range)
	assert.Equal(t, *res.Patches[0].Range, *res.Patches[1].Range)
}

func TestRequestBatchSharedAnchorTakesNextOccurrence(t *testing.T) {
	f := defaultFixture(t)
	doc := "jane@co.example and jane@co.example"
	id := createLive(t, f, doc,
		finding("f_001", entity.SeverityHigh, "jane@co.example"),
		finding("f_002", entity.SeverityMedium, "jane@co.example"),
	)
	f.live.set(llm.TaskPatch, []byte(`{"originalText":"jane@co.example","replacement":"[email]"}`))

	res, err := f.patches.RequestBatch(context.Background(), &dto.BatchPatchRequest{ReviewId: id, Text: doc, Config: live()})
	require.NoError(t, err)

	assert.Equal(t, "[email] and [email]", res.Text)
	assert.Equal(t, 2, res.Counts["applied"])
}

func TestRequestBatchDefaultsToAllFindings(t *testing.T) {
	f := defaultFixture(t)
	id := createLive(t, f, contactDoc,
		finding("f_001", entity.SeverityHigh, "Jane Doe"),
		finding("f_002", entity.SeverityMedium, "jane@co.example"),
	)

	res, err := f.patches.RequestBatch(context.Background(), &dto.BatchPatchRequest{ReviewId: id, Text: contactDoc, Config: live()})
	require.NoError(t, err)

	assert.Equal(t, "Contact: <Jane Doe>, <jane@co.example>", res.Text)
	assert.Equal(t, 2, f.live.callCount(llm.TaskPatch))
}

func TestRequestBatchUnknownFinding(t *testing.T) {
	f := defaultFixture(t)
	id := createLive(t, f, contactDoc, finding("f_001", entity.SeverityHigh, "Jane Doe"))

	_, err := f.patches.RequestBatch(context.Background(), &dto.BatchPatchRequest{ReviewId: id, FindingIds: []string{"f_001", "f_777"}, Text: contactDoc, Config: live()})

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, 0, f.live.callCount(llm.TaskPatch))
}

func TestRequestBatchUpstreamFailureFailsBatch(t *testing.T) {
	f := defaultFixture(t)
	id := createLive(t, f, contactDoc, finding("f_001", entity.SeverityHigh, "Jane Doe"))
	f.live.err = llm.ClassifyStatus("x", 429, nil)

	_, err := f.patches.RequestBatch(context.Background(), &dto.BatchPatchRequest{ReviewId: id, Text: contactDoc, Config: live()})

	assert.Equal(t, apperror.KindUpstreamThrottled, apperror.KindOf(err))
}

func TestApplyEditsRedactionScenario(t *testing.T) {
	f := defaultFixture(t)
	end := utf8.RuneCountInString(contactDoc)

	res, err := f.patches.ApplyEdits(context.Background(), &dto.ApplyEditsRequest{
		Text:  contactDoc,
		Edits: []dto.EditRequest{{FindingId: "f_001", Start: 9, End: end, Replacement: "[redacted]"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Contact: [redacted]", res.Text)
	assert.Equal(t, -(end-9)+len("[redacted]"), res.Outcomes[0].Delta)
	assert.Equal(t, len(contactDoc)+res.Outcomes[0].Delta, len(res.Text))
}

func TestApplyEditsOverlapDegrades(t *testing.T) {
	f := defaultFixture(t)
	doc := strings.Repeat("x", 5) + strings.Repeat("y", 10) + strings.Repeat("z", 10)

	res, err := f.patches.ApplyEdits(context.Background(), &dto.ApplyEditsRequest{
		Text: doc,
		Edits: []dto.EditRequest{
			{FindingId: "A", Start: 5, End: 15, Replacement: "AAAAAAA"},
			{FindingId: "B", Start: 12, End: 20, Replacement: "B"},
			{FindingId: "C", Anchor: "not here", Replacement: "C"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, patch.StatusApplied, res.Outcomes[0].Status)
	assert.Equal(t, -3, res.Outcomes[0].Delta)
	assert.Equal(t, patch.StatusDegraded, res.Outcomes[1].Status)
	assert.Equal(t, patch.StatusRejected, res.Outcomes[2].Status)
	assert.Equal(t, map[string]int{"applied": 1, "degraded": 1, "rejected": 1}, res.Counts)
}
