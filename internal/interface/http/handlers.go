// Package http implements the REST API for CTF Community Hub.
package http

import (
	"fmt"
	"net/http"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
	redispkg "github.com/ctfhub/ctf-community-hub/internal/infrastructure/persistence/redis"
	"github.com/ctfhub/ctf-community-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "CTF Community Hub API",
		"version":     "v1",
		"description": "REST API for the CTF community leaderboard",
		"endpoints": map[string]string{
			"health":       "/health",
			"leaderboard":  "/api/v1/leaderboard",
			"competitions": "/api/v1/competitions",
			"timeranges":   "/api/v1/timeranges",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard.
// Scope parameters: month=YYYY-MM, year=YYYY, competition=<id>.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Scope: query.Scope{
			CompetitionID: getQueryParam(r, "competition", ""),
			Month:         getQueryParam(r, "month", ""),
			Year:          getQueryParamInt(r, "year", 0),
		},
		SearchTerm: getQueryParam(r, "search", ""),
		Limit:      getQueryParamInt(r, "limit", 20),
		Offset:     getQueryParamInt(r, "offset", 0),
	}

	// Ответы без поиска кешируются в Redis целиком.
	cacheable := s.deps.Payloads != nil && q.SearchTerm == ""
	cacheKey := redispkg.APIKey("leaderboard",
		fmt.Sprintf("%s|%s|%d|%d|%d", q.Scope.CompetitionID, q.Scope.Month, q.Scope.Year, q.Limit, q.Offset))

	if cacheable {
		var cached query.GetLeaderboardResult
		if err := s.deps.Payloads.GetJSON(r.Context(), cacheKey, &cached); err == nil {
			writeLeaderboard(w, r, &cached)
			return
		}
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, err, "Failed to get leaderboard")
		return
	}

	if cacheable {
		if err := s.deps.Payloads.SetJSON(r.Context(), cacheKey, result); err != nil {
			s.logger.Warn("failed to cache API payload", logger.CacheKey(cacheKey), logger.Err(err))
		}
	}
	writeLeaderboard(w, r, result)
}

// writeLeaderboard writes a leaderboard result with pagination metadata.
func writeLeaderboard(w http.ResponseWriter, r *http.Request, result *query.GetLeaderboardResult) {
	meta := &ResponseMeta{
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		HasMore:    result.HasMore,
	}
	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// ══════════════════════════════════════════════════════════════════════════════
// USER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetUserRank handles GET /api/v1/users/{id}/rank.
func (s *Server) handleGetUserRank(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}
	if s.deps.GetUserRankHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Rank handler not configured")
		return
	}

	q := query.GetUserRankQuery{
		UserID: userID,
		Scope: query.Scope{
			CompetitionID: getQueryParam(r, "competition", ""),
			Month:         getQueryParam(r, "month", ""),
			Year:          getQueryParamInt(r, "year", 0),
		},
		IncludeExtended: getQueryParamBool(r, "extended"),
	}

	result, err := s.deps.GetUserRankHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, err, "Failed to get user rank")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetUserCategories handles GET /api/v1/users/{id}/categories.
func (s *Server) handleGetUserCategories(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}
	if s.deps.GetCategoryStatsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Category handler not configured")
		return
	}

	q := query.GetCategoryStatsQuery{
		UserID:        userID,
		CompetitionID: getQueryParam(r, "competition", ""),
	}

	result, err := s.deps.GetCategoryStatsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, err, "Failed to get category stats")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPETITION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetCompetitions handles GET /api/v1/competitions.
func (s *Server) handleGetCompetitions(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetCompetitionsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Competitions handler not configured")
		return
	}

	q := query.GetCompetitionsQuery{
		Limit: getQueryParamInt(r, "limit", 10),
	}

	result, err := s.deps.GetCompetitionsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, err, "Failed to get competitions")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetTimeRanges handles GET /api/v1/timeranges.
func (s *Server) handleGetTimeRanges(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetTimeRangesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Time ranges handler not configured")
		return
	}

	result, err := s.deps.GetTimeRangesHandler.Handle(r.Context())
	if err != nil {
		s.writeQueryError(w, err, "Failed to get time ranges")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeQueryError maps a query error to an HTTP response.
func (s *Server) writeQueryError(w http.ResponseWriter, err error, message string) {
	if shared.IsValidation(err) {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.logger.Error(message, logger.Err(err))
	writeJSONError(w, http.StatusInternalServerError, "internal_error", message)
}
