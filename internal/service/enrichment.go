package service

import (
	"context"

	"risk-review-be/internal/pkg/logger"
	"risk-review-be/pkg/enrich"
	"risk-review-be/pkg/llm"
)

type mediaEnricher struct {
	fetcher  *enrich.Fetcher
	maxItems int
	logger   logger.ILogger
}

func NewMediaEnricher(fetcher *enrich.Fetcher, maxItems int, logger logger.ILogger) Enricher {
	return &mediaEnricher{
		fetcher:  fetcher,
		maxItems: maxItems,
		logger:   logger,
	}
}

func (e *mediaEnricher) Attachments(ctx context.Context, document string) []llm.Attachment {
	urls := enrich.ExtractURLs(document, e.maxItems)
	if len(urls) == 0 {
		return nil
	}

	resources := e.fetcher.FetchAll(ctx, urls)
	e.logger.Info("Enrichment", "Fetched linked media", map[string]interface{}{
		"requested": len(urls),
		"attached":  len(resources),
	})

	out := make([]llm.Attachment, 0, len(resources))
	for _, r := range resources {
		out = append(out, llm.Attachment{MimeType: r.MimeType, Data: r.Data, SourceURL: r.URL})
	}
	return out
}
