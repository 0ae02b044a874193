package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ubaya-hub/student-hub/internal/application/command"
	"github.com/ubaya-hub/student-hub/internal/application/query"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Ubaya Student Hub API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":   "/health",
			"students": "/api/v1/students",
			"friends":  "/api/v1/friends",
			"theme":    "/api/v1/settings/theme",
		},
	}
	if s.deps.Hub != nil {
		info["features"] = map[string]bool{
			"careerInsight": s.deps.Hub.Features.CareerInsight,
			"textRefine":    s.deps.Hub.Features.TextRefine,
			"photoUpload":   s.deps.Hub.Features.PhotoUpload,
		}
	}
	writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.config.Version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListStudents handles GET /api/v1/students?q=
// Without q the whole directory is returned in insertion order.
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		result, err := s.deps.Hub.Queries.ListStudents.Handle(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{TotalCount: result.Total})
		return
	}

	result, err := s.deps.Hub.Queries.SearchStudents.Handle(r.Context(), query.SearchStudentsQuery{Query: q})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{TotalCount: result.Total})
}

// handleCreateStudent handles POST /api/v1/students
func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var body student.Student
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.Hub.Commands.CreateStudent.Handle(r.Context(), command.CreateStudentCommand{Student: body})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/students/"+result.Student.NRP)
	writeJSONWithMeta(w, r, http.StatusCreated, result.Student, &ResponseMeta{TotalCount: result.Total})
}

// handleGetStudent handles GET /api/v1/students/{nrp}
func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Hub.Queries.GetStudent.Handle(r.Context(), query.GetStudentQuery{NRP: r.PathValue("nrp")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleUpdateStudent handles PUT /api/v1/students/{nrp}
// The body is the full record. An NRP in the body must match the path.
func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var body student.Student
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.Hub.Commands.UpdateStudent.Handle(r.Context(), command.UpdateStudentCommand{
		NRP:     r.PathValue("nrp"),
		Student: body,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"student":      result.Student,
		"photoChanged": result.PhotoChanged,
	})
}

// handleDeleteStudent handles DELETE /api/v1/students/{nrp}
// Deleting an unknown NRP succeeds with deleted=false.
func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Hub.Commands.DeleteStudent.Handle(r.Context(), command.DeleteStudentCommand{NRP: r.PathValue("nrp")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"deleted": result.Deleted})
}

// handleUploadPhoto handles PUT /api/v1/students/{nrp}/photo
// The body is either the raw image or a multipart form with a "photo" file.
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	data, err := readPhoto(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return
		}
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.Hub.Commands.UploadPhoto.Handle(r.Context(), command.UploadPhotoCommand{
		NRP:  r.PathValue("nrp"),
		Data: data,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"student":  result.Student,
		"mimeType": result.MIMEType,
		"size":     result.Size,
	})
}

// handleCareerInsight handles GET /api/v1/students/{nrp}/insight
func (s *Server) handleCareerInsight(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Hub.Queries.GetCareerInsight.Handle(r.Context(), query.GetCareerInsightQuery{NRP: r.PathValue("nrp")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type refineRequest struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

// handleRefineText handles POST /api/v1/refine
func (s *Server) handleRefineText(w http.ResponseWriter, r *http.Request) {
	var body refineRequest
	if !decodeBody(w, r, &body) {
		return
	}
	field, err := command.ParseRefineField(body.Field)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.deps.Hub.Commands.RefineText.Handle(r.Context(), command.RefineTextCommand{Field: field, Text: body.Text})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// FRIENDS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListFriends handles GET /api/v1/friends
func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Hub.Queries.ListFriends.Handle(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{TotalCount: result.Total})
}

// handleResetFriends handles DELETE /api/v1/friends
func (s *Server) handleResetFriends(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Hub.Commands.ResetFriends.Handle(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"removed": result.Removed})
}

// handleIsFriend handles GET /api/v1/friends/{nrp}
func (s *Server) handleIsFriend(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Hub.Queries.IsFriend.Handle(r.Context(), query.IsFriendQuery{NRP: r.PathValue("nrp")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleAddFriend handles POST /api/v1/friends/{nrp}
// A repeated add is not an error; it answers 200 with added=false.
func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Hub.Commands.AddFriend.Handle(r.Context(), command.AddFriendCommand{NRP: r.PathValue("nrp")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Added {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, result)
}

// handleFriendMail handles GET /api/v1/friends/{nrp}/mail
// With ?redirect=1 the client is sent straight to the mailto: URL.
func (s *Server) handleFriendMail(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Hub.Queries.ComposeFriendEmail.Handle(r.Context(), query.ComposeFriendEmailQuery{NRP: r.PathValue("nrp")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if getQueryParamBool(r, "redirect") {
		http.Redirect(w, r, result.URL, http.StatusFound)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Hub.Queries.GetTheme.Handle(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type themeRequest struct {
	Theme  string `json:"theme"`
	Toggle bool   `json:"toggle"`
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var body themeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	result, err := s.deps.Hub.Commands.SetTheme.Handle(r.Context(), command.SetThemeCommand{Theme: body.Theme, Toggle: body.Toggle})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleResetData handles POST /api/v1/settings/reset
// Every collection and the theme are removed; the directory re-seeds on the
// next read.
func (s *Server) handleResetData(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Hub.Commands.ResetData.Handle(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"reset": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody reads a JSON body into dest. On failure it writes the error
// response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
		case errors.Is(err, io.EOF):
			writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Request body is required")
		default:
			writeJSONError(w, r, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid JSON body: %v", err))
		}
		return false
	}
	return true
}

func readPhoto(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("photo")
		if err != nil {
			return nil, fmt.Errorf("photo file: %w", err)
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}

// getQueryParamBool extracts a boolean query parameter.
func getQueryParamBool(r *http.Request, key string) bool {
	value := strings.ToLower(r.URL.Query().Get(key))
	return value == "true" || value == "1" || value == "yes"
}
