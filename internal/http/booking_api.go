package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/example/meeting-rooms/internal/application"
)

// ListAPI godoc
// @Summary List meetings
// @Description Every meeting, newest first, with the same filters as the meetings pages.
// @Tags meetings
// @Produce json
// @Param q query string false "Search title, description, room or organizer"
// @Param status query string false "upcoming, ongoing, ended or all"
// @Param date_from query string false "YYYY-MM-DD, inclusive"
// @Param date_to query string false "YYYY-MM-DD, inclusive"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size, positive integer, default 10"
// @Success 200 {object} bookingPageDTO
// @Failure 401 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetings [get]
func (h *BookingHandler) ListAPI(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, application.ScopeAll)
}

// GetAPI godoc
// @Summary Get a meeting
// @Tags meetings
// @Produce json
// @Param id path int true "Meeting id"
// @Success 200 {object} bookingDTO
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetings/{id} [get]
func (h *BookingHandler) GetAPI(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.show(w, r, ps, application.ScopeAll)
}

// CreateAPI godoc
// @Summary Book a meeting room
// @Description The caller becomes the organizer. Times are RFC 3339 instants or wall clock values in the display zone.
// @Tags meetings
// @Accept json
// @Produce json
// @Param body body application.BookingInput true "Meeting"
// @Success 201 {object} bookingDTO
// @Failure 409 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetings [post]
func (h *BookingHandler) CreateAPI(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.Create(w, r, ps)
}

// UpdateAPI godoc
// @Summary Update a meeting
// @Description Organizer or administrator only; other callers get 404.
// @Tags meetings
// @Accept json
// @Produce json
// @Param id path int true "Meeting id"
// @Param body body application.BookingInput true "Meeting"
// @Success 200 {object} bookingDTO
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetings/{id} [put]
func (h *BookingHandler) UpdateAPI(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.Edit(w, r, ps)
}

// DeleteAPI godoc
// @Summary Delete a meeting
// @Description Organizer or administrator only; other callers get 404.
// @Tags meetings
// @Param id path int true "Meeting id"
// @Success 204
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetings/{id} [delete]
func (h *BookingHandler) DeleteAPI(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.Delete(w, r, ps)
}
