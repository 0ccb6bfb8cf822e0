package v1

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sunzhuo/teatalk/chat"
	"github.com/sunzhuo/teatalk/store"
)

type uploadAttachmentBody struct {
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	UseVision bool   `json:"use_vision"`
	SortOrder int32  `json:"sort_order"`
}

// UploadAttachment stores an attachment ahead of the message it will be
// bound to. Image content arrives as a data URL, document content as
// already-extracted text.
func (s *APIV1Service) UploadAttachment(c echo.Context) error {
	body := &uploadAttachmentBody{}
	if err := c.Bind(body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if body.Filename == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "filename is required")
	}
	if body.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	attachmentType := inferAttachmentType(body.Filename)
	if attachmentType == store.AttachmentTypeImage {
		if _, _, ok := chat.ParseDataURL(body.Content); !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "image content must be a base64 data URL")
		}
	}

	attachment, err := s.Store.CreateAttachment(c.Request().Context(), &store.Attachment{
		MessageID: store.UnattachedMessageID,
		Type:      attachmentType,
		URL:       &body.Filename,
		Content:   &body.Content,
		UseVision: body.UseVision,
		SortOrder: body.SortOrder,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store attachment").SetInternal(err)
	}
	return c.JSON(http.StatusOK, attachment)
}

// inferAttachmentType classifies an attachment by its file extension.
// Unrecognized extensions are treated as text.
func inferAttachmentType(filename string) store.AttachmentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return store.AttachmentTypeImage
	case ".pdf":
		return store.AttachmentTypePDF
	case ".doc", ".docx":
		return store.AttachmentTypeWord
	case ".ppt", ".pptx":
		return store.AttachmentTypePowerPoint
	case ".xls", ".xlsx", ".csv":
		return store.AttachmentTypeExcel
	default:
		return store.AttachmentTypeText
	}
}
