package domain

import "context"

// Completer produces a model reply for a user message. Errors are returned
// explicitly; the dispatcher decides how to degrade.
type Completer interface {
	Complete(ctx context.Context, userText string) (string, error)
	CompleteImage(ctx context.Context, data []byte, mimeType, caption string) (string, error)
}

// MediaFetcher resolves a platform media ID to bytes plus MIME type.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaID string) (*MediaPayload, error)
}

// ReplySender delivers a text reply to a destination.
type ReplySender interface {
	SendText(ctx context.Context, to, text string) error
}
