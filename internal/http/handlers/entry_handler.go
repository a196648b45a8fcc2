// Gratitude entry HTTP handlers.
//
// This file exposes REST endpoints for the journal:
//   - POST   /entries              (create an entry; supports Idempotency-Key)
//   - GET    /entries              (filterable, paginated jar view; ETag)
//   - PUT    /entries/{id}         (partial edit)
//   - POST   /entries/{id}/favorite (toggle favorite flag)
//   - DELETE /entries/{id}         (delete)
//
// Handlers are transport-thin: validate and normalize inputs, delegate to
// EntryService, and map sentinel errors to the HTTP error taxonomy.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// creation exists for (user, "entries", key), the handler returns the
// recorded entry and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/http/middleware"
	"github.com/jari-app/jari-backend/internal/repo"
	"github.com/jari-app/jari-backend/internal/services"
	"github.com/jari-app/jari-backend/internal/utils"
)

// idemScopeEntries is the idempotency scope shared by entry creation.
const idemScopeEntries = "entries"

//
// DTOs
//

// CreateEntryRequest is the JSON payload for a new gratitude entry.
type CreateEntryRequest struct {
	// Content is the gratitude text. It must be non-empty after trimming.
	Content string `json:"content" binding:"required,min=1" example:"Grateful for the first coffee of the morning"`
	// IsPublic marks the entry as shareable.
	IsPublic bool `json:"is_public" example:"false"`
	// MoodIntensity is an optional 1-5 self-report.
	MoodIntensity *int `json:"mood_intensity,omitempty" example:"4"`
	// Sticker is an optional mood decoration.
	Sticker *domain.StickerConfig `json:"sticker,omitempty"`
	// Tags are optional labels.
	Tags []string `json:"tags,omitempty"`
}

// UpdateEntryRequest is a partial patch; absent fields are left untouched.
// RemoveSticker clears the sticker when no replacement is supplied.
type UpdateEntryRequest struct {
	Content       *string               `json:"content,omitempty"`
	IsPublic      *bool                 `json:"is_public,omitempty"`
	MoodIntensity *int                  `json:"mood_intensity,omitempty"`
	Sticker       *domain.StickerConfig `json:"sticker,omitempty"`
	RemoveSticker bool                  `json:"remove_sticker,omitempty"`
	Tags          []string              `json:"tags,omitempty"`
}

// EntryResponse is the envelope for a single entry.
type EntryResponse struct {
	Entry *domain.GratitudeEntry `json:"entry"`
}

// ListEntriesResponse contains a page of entries and pagination metadata.
type ListEntriesResponse struct {
	Entries    []domain.GratitudeEntry `json:"entries"`
	Pagination Pagination              `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses page/page_size query params with defaults and caps.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text: CRLF/CR to LF, runs of 3+ LFs down
// to two, surrounding whitespace trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// parseEntryFilter builds the repository filter from query parameters.
// Dates use the YYYY-MM-DD form; a malformed date is reported, not ignored.
func parseEntryFilter(c *gin.Context) (repo.EntryFilter, error) {
	f := repo.EntryFilter{
		Mood:          strings.ToLower(strings.TrimSpace(c.Query("mood"))),
		Search:        strings.TrimSpace(c.Query("search")),
		FavoritesOnly: c.Query("favorites_only") == "true",
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("from must be YYYY-MM-DD")
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("to must be YYYY-MM-DD")
		}
		f.To = &t
	}
	if c.Query("sort") == string(repo.SortOldestFirst) {
		f.Sort = repo.SortOldestFirst
	}
	return f, nil
}

// entryValidationMessage maps a validation sentinel to its client message.
func entryValidationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, services.ErrEmptyContent):
		return "content required", true
	case errors.Is(err, services.ErrContentTooLong):
		return "content too long", true
	case errors.Is(err, services.ErrInvalidMoodIntensity):
		return "mood_intensity must be between 1 and 5", true
	case errors.Is(err, services.ErrInvalidSticker):
		return "invalid sticker", true
	}
	return "", false
}

//
// Handlers
//

// CreateEntry godoc
// @ID          createEntry
// @Summary     Create a gratitude entry
// @Description Persists a new entry and advances the owner's streak. Supports
// @Description idempotency via the Idempotency-Key header (same key → same entry).
// @Tags        Entries
// @Accept      json
// @Produce     json
//
// @Param       Authorization    header  string  true  "Bearer <user id>"  example(Bearer user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.CreateEntryRequest  true  "Entry payload"
//
// @Success     201  {object}  handlers.EntryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /entries [post]
func (h *Handlers) CreateEntry(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, userID, idemScopeEntries, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetEntry(ctx, h.db, rec.ResourceID, userID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, EntryResponse{Entry: prev})
				return
			}
		}
	}

	entry, err := h.entrySvc.Create(ctx, userID, services.CreateEntryInput{
		Content:       sanitizeContent(req.Content),
		IsPublic:      req.IsPublic,
		MoodIntensity: req.MoodIntensity,
		Sticker:       req.Sticker,
		Tags:          req.Tags,
	})
	if err != nil {
		if msg, isValidation := entryValidationMessage(err); isValidation {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.db != nil {
		ttl := h.idemTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		_, _ = repo.CreateIdempotency(ctx, h.db, userID, idemScopeEntries, idemKey, entry.ID, http.StatusCreated, ttl)
	}

	ok(c, http.StatusCreated, EntryResponse{Entry: entry})
}

// ListEntries godoc
// @ID          listEntries
// @Summary     List gratitude entries
// @Description Returns a filtered, paginated page of the caller's entries,
// @Description newest first by default. Supports conditional requests via ETag.
// @Tags        Entries
// @Produce     json
//
// @Param       mood            query  string  false  "Sticker mood filter"        example(grateful)
// @Param       favorites_only  query  bool    false  "Only favorited entries"
// @Param       from            query  string  false  "Start day (YYYY-MM-DD)"
// @Param       to              query  string  false  "End day, inclusive (YYYY-MM-DD)"
// @Param       search          query  string  false  "Substring match on content or mood"
// @Param       sort            query  string  false  "newest|oldest"              default(newest)
// @Param       page            query  int     false  "Page number"                minimum(1) default(1)
// @Param       page_size       query  int     false  "Items per page"             minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListEntriesResponse
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /entries [get]
func (h *Handlers) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	f, err := parseEntryFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	// ETag pre-check (best effort). The tag covers the whole journal, so any
	// write invalidates every filtered view.
	if h.db != nil {
		count, maxTS, err := repo.EntriesStats(ctx, h.db, userID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"entries:%s:%d:%d"`, userID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)

	items, total, err := h.entrySvc.ListPage(ctx, userID, f, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from must not be after to")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListEntriesResponse{
		Entries:    items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// UpdateEntry godoc
// @ID          updateEntry
// @Summary     Edit a gratitude entry
// @Description Applies a partial patch to an entry owned by the caller.
// @Description Edits never move streaks or mood analytics.
// @Tags        Entries
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Entry ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateEntryRequest  true  "Patch payload"
//
// @Success     200  {object}  handlers.EntryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     404  {object}  handlers.ErrorResponse  "Entry not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /entries/{id} [put]
func (h *Handlers) UpdateEntry(c *gin.Context) {
	ctx := c.Request.Context()
	entryID := c.Param("id")

	if _, err := uuid.Parse(entryID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry id must be a UUID")
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload")
		return
	}
	if req.Content != nil {
		s := sanitizeContent(*req.Content)
		req.Content = &s
	}

	entry, err := h.entrySvc.Update(ctx, middleware.UserID(c), entryID, services.UpdateEntryInput{
		Content:       req.Content,
		IsPublic:      req.IsPublic,
		MoodIntensity: req.MoodIntensity,
		Sticker:       req.Sticker,
		RemoveSticker: req.RemoveSticker,
		Tags:          req.Tags,
	})
	if err != nil {
		if msg, isValidation := entryValidationMessage(err); isValidation {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg)
			return
		}
		if errors.Is(err, services.ErrEntryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, EntryResponse{Entry: entry})
}

// ToggleFavorite godoc
// @ID          toggleFavorite
// @Summary     Toggle the favorite flag
// @Description Flips is_favorite on an entry owned by the caller and returns
// @Description the updated entry. Two toggles restore the original state.
// @Tags        Entries
// @Produce     json
//
// @Param       id  path  string  true  "Entry ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.EntryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Entry not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /entries/{id}/favorite [post]
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	ctx := c.Request.Context()
	entryID := c.Param("id")

	if _, err := uuid.Parse(entryID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry id must be a UUID")
		return
	}

	entry, err := h.entrySvc.ToggleFavorite(ctx, middleware.UserID(c), entryID)
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, EntryResponse{Entry: entry})
}

// DeleteEntry godoc
// @ID          deleteEntry
// @Summary     Delete a gratitude entry
// @Description Removes an entry owned by the caller. Streaks and analytics
// @Description already derived from it are left as recorded.
// @Tags        Entries
// @Produce     json
//
// @Param       id  path  string  true  "Entry ID (UUID)"  format(uuid)
//
// @Success     204  "Deleted"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Entry not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /entries/{id} [delete]
func (h *Handlers) DeleteEntry(c *gin.Context) {
	ctx := c.Request.Context()
	entryID := c.Param("id")

	if _, err := uuid.Parse(entryID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry id must be a UUID")
		return
	}

	if err := h.entrySvc.Delete(ctx, middleware.UserID(c), entryID); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}

	noContent(c)
}
