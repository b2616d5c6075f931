package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"userauth/api/internal/media/sniffer"
	"userauth/api/internal/response"
	"userauth/api/internal/service"
)

const messageImageUpdated = "Profile image updated successfully"

// multipart overhead allowed on top of the image itself
const formOverheadBytes = 1 << 20

func (h HandlerSet) UploadProfileImage(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Storage.MaxImageBytes+formOverheadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, "avatar_upload", service.ErrImageTooLarge)
			return
		}
		h.writeError(c, "avatar_upload", service.ErrImageRequired)
		return
	}
	defer file.Close()

	user, err := h.avatars.Upload(c.Request.Context(), service.AvatarInput{
		UserID:       identity.UserID,
		File:         file,
		DeclaredType: sniffer.MimeTypeFromHeader(header.Header),
	})
	if err != nil {
		h.writeError(c, "avatar_upload", err)
		return
	}

	response.OK(c, messageImageUpdated, newAccountView(user))
}
