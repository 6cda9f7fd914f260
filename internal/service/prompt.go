package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"risk-review-be/internal/entity"
)

func formatSettings(s entity.Settings) string {
	return fmt.Sprintf("publishScope=%s\ntone=%s\naudience=%s\nredactMode=%s\n",
		s.PublishScope, s.Tone, s.Audience, s.RedactMode)
}

func reportPrompt(reviewId string, s entity.Settings, text string) string {
	var sb strings.Builder
	if reviewId != "" {
		fmt.Fprintf(&sb, "[reviewId]\n%s\n\n", reviewId)
	}
	fmt.Fprintf(&sb, "[settings]\n%s[markdown]\n%s\n", formatSettings(s), text)
	return sb.String()
}

func patchPrompt(reviewId string, f *entity.Finding, originalText, text string) string {
	finding, _ := json.Marshal(f)
	return fmt.Sprintf("[reviewId]\n%s\n\n[finding]\n%s\n\n[originalText]\n%s\n\n[markdown]\n%s\n",
		reviewId, finding, originalText, text)
}

func releasePrompt(reviewId string, s entity.Settings, text string) string {
	return fmt.Sprintf("[reviewId]\n%s\n\n[settings]\n%s[markdown]\n%s\n",
		reviewId, formatSettings(s), text)
}

func personaPrompt(s entity.Settings, text string) string {
	return fmt.Sprintf("[settings]\n%s[markdown]\n%s\n", formatSettings(s), text)
}
