package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nononsenseapps/linksync/internal/common"
	"github.com/nononsenseapps/linksync/internal/server/models"
	"github.com/nononsenseapps/linksync/internal/timex"
)

// linkJSON is the wire form of a link. Timestamps use the canonical
// microsecond layout in UTC.
type linkJSON struct {
	Sha       string `json:"sha"`
	URL       string `json:"url"`
	Deleted   bool   `json:"deleted"`
	Timestamp string `json:"timestamp"`
}

type linkListResponse struct {
	Links           []linkJSON `json:"links"`
	LatestTimestamp string     `json:"latestTimestamp"`
}

type addLinkRequest struct {
	URL   string `json:"url"`
	Sha   string `json:"sha"`
	RegID string `json:"regid"`
}

type registerRequest struct {
	RegID string `json:"regid"`
}

func toLinkJSON(l *models.Link) linkJSON {
	return linkJSON{
		Sha:       l.Sha,
		URL:       l.URL,
		Deleted:   l.Deleted,
		Timestamp: timex.FormatTimestamp(l.UpdatedAt),
	}
}

func (s *HTTPServer) currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// abortWithServiceError translates service errors to HTTP status codes.
func (s *HTTPServer) abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error(c.Request.Context(), err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *HTTPServer) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *HTTPServer) listLinks(c *gin.Context) {

	showDeleted := false
	if v := c.Query("showDeleted"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid showDeleted"})
			return
		}
		showDeleted = parsed
	}

	var since *time.Time
	if v := c.Query("timestampMin"); v != "" {
		parsed, err := timex.ParseTimestamp(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid timestampMin"})
			return
		}
		since = &parsed
	}

	links, latest, err := s.links.List(c.Request.Context(), s.currentUser(c), since, showDeleted)
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	resp := linkListResponse{
		Links:           make([]linkJSON, 0, len(links)),
		LatestTimestamp: timex.FormatTimestamp(latest),
	}
	for _, l := range links {
		resp.Links = append(resp.Links, toLinkJSON(l))
	}

	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) addLink(c *gin.Context) {

	var req addLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	link, err := s.links.CreateOrReplace(c.Request.Context(), s.currentUser(c), req.URL, req.Sha, req.RegID)
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLinkJSON(link))
}

func (s *HTTPServer) getLink(c *gin.Context) {

	link, err := s.links.Get(c.Request.Context(), s.currentUser(c), c.Param("sha"))
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLinkJSON(link))
}

func (s *HTTPServer) deleteLink(c *gin.Context) {

	link, err := s.links.Delete(c.Request.Context(), s.currentUser(c), c.Param("sha"), c.Query("regid"))
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLinkJSON(link))
}

func (s *HTTPServer) registerDevice(c *gin.Context) {

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if err := s.devices.Register(c.Request.Context(), s.currentUser(c), req.RegID); err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
