// Profile, stats, analytics, and preference HTTP handlers.
//
// This file exposes the profile page surface:
//   - GET /profile           (display fields + streak counters)
//   - PUT /profile           (patch display fields)
//   - GET /profile/stats     (entry totals, favorites, streaks)
//   - GET /analytics/mood    (per-day mood aggregates for charting)
//   - GET /preferences       (chat persona hints)
//   - PUT /preferences       (replace persona hints)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/http/middleware"
	"github.com/jari-app/jari-backend/internal/services"
	"github.com/jari-app/jari-backend/internal/utils"
)

//
// DTOs
//

// UpdateProfileRequest is a partial patch of the profile display fields.
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty" example:"sunny_dara"`
	FullName  *string `json:"full_name,omitempty" example:"Dara Lindholm"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// ProfileResponse is the envelope for a profile.
type ProfileResponse struct {
	Profile *domain.Profile `json:"profile"`
}

// MoodTrendResponse contains per-day mood aggregates, oldest first.
type MoodTrendResponse struct {
	Days []domain.MoodAnalytics `json:"days"`
}

// PreferencesRequest replaces the caller's chat persona hints.
type PreferencesRequest struct {
	Age       *int     `json:"age,omitempty" example:"29"`
	Interests []string `json:"interests,omitempty"`
}

// PreferencesResponse is the envelope for persona preferences.
type PreferencesResponse struct {
	Preferences *domain.UserPreferences `json:"preferences"`
}

//
// Handlers
//

// GetProfile godoc
// @ID          getProfile
// @Summary     Get the caller's profile
// @Description Returns display fields and streak counters, creating an empty
// @Description profile on first access.
// @Tags        Profile
// @Produce     json
//
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profileSvc.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ProfileResponse{Profile: p})
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update profile display fields
// @Description Patches username, full name, and avatar URL. Streak counters
// @Description are read-only and move only on entry creation.
// @Tags        Profile
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.UpdateProfileRequest  true  "Patch payload"
//
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload")
		return
	}

	p, err := h.profileSvc.Update(c.Request.Context(), middleware.UserID(c), services.UpdateProfileInput{
		Username:  req.Username,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ProfileResponse{Profile: p})
}

// GetStats godoc
// @ID          getStats
// @Summary     Get profile statistics
// @Description Returns entry totals, favorite count, and streak counters.
// @Tags        Profile
// @Produce     json
//
// @Success     200  {object}  services.ProfileStats
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile/stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.profileSvc.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// MoodTrend godoc
// @ID          moodTrend
// @Summary     Get the mood trend
// @Description Returns up to `days` per-day mood aggregates ending today,
// @Description oldest first. Days without moody entries have no row.
// @Tags        Analytics
// @Produce     json
//
// @Param       days  query  int  false  "Window length in days"  minimum(1) maximum(90) default(30)
//
// @Success     200  {object}  handlers.MoodTrendResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /analytics/mood [get]
func (h *Handlers) MoodTrend(c *gin.Context) {
	days := utils.AtoiDefault(c.Query("days"), 0)
	rows, err := h.profileSvc.MoodTrend(c.Request.Context(), middleware.UserID(c), days)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if rows == nil {
		rows = []domain.MoodAnalytics{}
	}
	ok(c, http.StatusOK, MoodTrendResponse{Days: rows})
}

// GetPreferences godoc
// @ID          getPreferences
// @Summary     Get chat persona preferences
// @Description Returns the age/interests hints the companion weaves into its
// @Description prompt. A caller who never saved any gets an empty value.
// @Tags        Preferences
// @Produce     json
//
// @Success     200  {object}  handlers.PreferencesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /preferences [get]
func (h *Handlers) GetPreferences(c *gin.Context) {
	p, err := h.profileSvc.Preferences(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, PreferencesResponse{Preferences: p})
}

// PutPreferences godoc
// @ID          putPreferences
// @Summary     Replace chat persona preferences
// @Description Replaces the caller's persona hints wholesale.
// @Tags        Preferences
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.PreferencesRequest  true  "Preferences payload"
//
// @Success     200  {object}  handlers.PreferencesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /preferences [put]
func (h *Handlers) PutPreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload")
		return
	}
	if req.Age != nil && (*req.Age < 1 || *req.Age > 150) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "age must be between 1 and 150")
		return
	}

	p, err := h.profileSvc.SavePreferences(c.Request.Context(), middleware.UserID(c), req.Age, req.Interests)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, PreferencesResponse{Preferences: p})
}
