package chat

import (
	"fmt"
	"strings"

	"github.com/sunzhuo/teatalk/provider"
	"github.com/sunzhuo/teatalk/store"
)

// ParseDataURL extracts the MIME type and the raw base64 payload from a
// data URL of the form `data:<mime>;base64,<payload>`. It reports false for
// anything else, including data URLs without the base64 marker or without a
// comma separator.
func ParseDataURL(dataURL string) (mimeType, payload string, ok bool) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", "", false
	}
	header, content, found := strings.Cut(dataURL, ",")
	if !found {
		return "", "", false
	}
	if !strings.Contains(header, "base64") {
		return "", "", false
	}
	mimeType = strings.TrimPrefix(header, "data:")
	if semicolon := strings.Index(mimeType, ";"); semicolon >= 0 {
		mimeType = mimeType[:semicolon]
	}
	return mimeType, content, true
}

// InferImageMIME guesses an image MIME type from a file reference's
// extension, defaulting to image/jpeg.
func InferImageMIME(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".bmp"):
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

// renderFileAttachment renders a text-like or document attachment as a
// tagged block for inclusion in prompt text.
func renderFileAttachment(attachment *store.Attachment) (string, bool) {
	if attachment.Content == nil {
		return "", false
	}
	name := "unknown"
	if attachment.URL != nil {
		name = *attachment.URL
	}
	return fmt.Sprintf("<fileattachment name=%q>%s</fileattachment>", name, *attachment.Content), true
}

// RenderTextAttachments renders every text attachment of the list as a
// fileattachment block, joined with newlines. Used to build the
// prompt-with-context persisted on the user turn.
func RenderTextAttachments(attachments []*store.Attachment) string {
	blocks := make([]string, 0, len(attachments))
	for _, attachment := range attachments {
		if attachment.Type != store.AttachmentTypeText {
			continue
		}
		if block, ok := renderFileAttachment(attachment); ok {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n")
}

// imagePart converts an image attachment into a content part. Inline data
// URLs become embedded base64 images; bare references become image URLs
// with an inferred MIME type.
func imagePart(attachment *store.Attachment) (provider.ContentPart, bool) {
	if attachment.Content != nil {
		if mimeType, payload, ok := ParseDataURL(*attachment.Content); ok {
			return provider.ContentPart{
				Type:       provider.PartTypeImageBase64,
				MIMEType:   mimeType,
				Base64Data: payload,
			}, true
		}
		return provider.ContentPart{}, false
	}
	if attachment.URL != nil {
		return provider.ContentPart{
			Type:     provider.PartTypeImageURL,
			MIMEType: InferImageMIME(*attachment.URL),
			ImageURL: *attachment.URL,
		}, true
	}
	return provider.ContentPart{}, false
}

// BuildChatMessages renders resolved turns into provider chat messages.
// User turns may carry multiple content parts (text plus N images);
// system and assistant turns are collapsed to plain text, with document
// attachments appended as fileattachment blocks.
func BuildChatMessages(turns []Turn) []provider.ChatMessage {
	messages := make([]provider.ChatMessage, 0, len(turns))
	for _, turn := range turns {
		role := string(turn.Role)
		if len(turn.Attachments) == 0 {
			messages = append(messages, provider.ChatMessage{Role: role, Text: turn.Content})
			continue
		}

		text := turn.Content
		imageParts := []provider.ContentPart{}
		for _, attachment := range turn.Attachments {
			if attachment.Type == store.AttachmentTypeImage {
				if part, ok := imagePart(attachment); ok {
					imageParts = append(imageParts, part)
				}
				continue
			}
			if block, ok := renderFileAttachment(attachment); ok {
				text = text + "\n" + block
			}
		}

		if turn.Role != store.RoleUser || len(imageParts) == 0 {
			// Images cannot be represented on system/assistant turns.
			messages = append(messages, provider.ChatMessage{Role: role, Text: text})
			continue
		}

		parts := append([]provider.ContentPart{{Type: provider.PartTypeText, Text: text}}, imageParts...)
		messages = append(messages, provider.ChatMessage{Role: role, Text: text, Parts: parts})
	}
	return messages
}
