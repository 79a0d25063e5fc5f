package server

import (
	"context"
	"encoding/json"

	"farmbot/internal/domain"
	"farmbot/internal/metrics"
	"farmbot/internal/whatsapp"
)

// Fixed user-facing strings. These are contractual behavior, not copy.
const (
	defaultImagePrompt = "Analyze this farming image and give agricultural advice."
	fallbackReply      = "Please send a text message or a photo of your crop/field and I'll help you! 🌾"
	textApology        = "Sorry, I'm having trouble right now. Please try again in a moment. 🙏"
	imageApology       = "I couldn't analyze the image. Please try again or describe what you see. 🌿"
	testQuestion       = "What fertilizer for tomatoes?"
)

// process handles one webhook delivery after the 200 ack. Every failure is
// isolated here: nothing propagates back to the transport and nothing is
// retried.
func (s *Server) process(ctx context.Context, body []byte) {
	metrics.InFlightDispatch.Inc()
	defer metrics.InFlightDispatch.Dec()

	var payload whatsapp.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Debug("webhook: undecodable payload", "err", err)
		return
	}

	msg := payload.FirstMessage()
	if msg == nil {
		// Status updates and other message-less callbacks are expected.
		metrics.EmptyDeliveries.Inc()
		s.logger.Debug("webhook: delivery without message")
		return
	}

	s.logger.Info("message received", "from", msg.From, "type", msg.Type)

	reply, ok := s.replyFor(ctx, msg)
	if !ok {
		return
	}

	if err := s.sender.SendText(ctx, msg.From, reply); err != nil {
		metrics.SendFailures.Inc()
		s.logger.Error("send reply failed", "err", err, "to", msg.From)
		return
	}
	metrics.RepliesSent.Inc()
}

// replyFor routes one message to the completion provider, via the media
// fetcher for images. ok=false means processing aborts with no reply (media
// download failure); completion failures degrade to fixed apology strings so
// the sender always hears back.
func (s *Server) replyFor(ctx context.Context, msg *domain.InboundMessage) (reply string, ok bool) {
	switch msg.Type {
	case domain.TypeText:
		metrics.TextMessages.Inc()
		reply, err := s.completer.Complete(ctx, msg.Text)
		if err != nil {
			metrics.CompletionErrors.Inc()
			s.logger.Error("text completion failed", "err", err, "from", msg.From)
			return textApology, true
		}
		return reply, true

	case domain.TypeImage:
		metrics.ImageMessages.Inc()
		media, err := s.media.DownloadMedia(ctx, msg.Media.ID)
		if err != nil {
			metrics.MediaFetchErrors.Inc()
			s.logger.Error("media download failed", "err", err, "from", msg.From)
			return "", false
		}

		caption := msg.Media.Caption
		if caption == "" {
			caption = defaultImagePrompt
		}

		reply, err := s.completer.CompleteImage(ctx, media.Data, media.MimeType, caption)
		if err != nil {
			metrics.CompletionErrors.Inc()
			s.logger.Error("image completion failed", "err", err, "from", msg.From)
			return imageApology, true
		}
		return reply, true

	default:
		metrics.OtherMessages.Inc()
		return fallbackReply, true
	}
}
