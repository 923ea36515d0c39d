package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplymarket_api/internal/directory"
)

type DirectoryHandler struct {
	directory *directory.Service
}

func NewDirectoryHandler(svc *directory.Service) *DirectoryHandler {
	return &DirectoryHandler{directory: svc}
}

// List works anonymously; signed-in buyers also get transport estimates.
func (h *DirectoryHandler) List(c *gin.Context) {
	entries, err := h.directory.List(userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "suppliers": entries})
}
