package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/example/meeting-rooms/internal/application"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID int64) error
	GetRoom(ctx context.Context, principal application.Principal, roomID int64) (application.Room, error)
	ListRooms(ctx context.Context, params application.ListRoomsParams) ([]application.Room, error)
}

// RoomHandler serves the room catalog. The same handler backs the admin
// pages and the machine API; writes are restricted to administrators by the
// service.
type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

// List godoc
// @Summary List meeting rooms
// @Tags rooms
// @Produce json
// @Param q query string false "Search name or location"
// @Success 200 {array} roomDTO
// @Failure 401 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetingrooms [get]
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	rooms, err := h.service.ListRooms(r.Context(), application.ListRoomsParams{Principal: principal, Query: query})
	if err != nil {
		logger.ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(rooms)).DebugContext(r.Context(), "rooms listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTOs(rooms))
}

// Get godoc
// @Summary Get a meeting room
// @Tags rooms
// @Produce json
// @Param id path int true "Room id"
// @Success 200 {object} roomDTO
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetingrooms/{id} [get]
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := parseID(ps.ByName("id"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errInvalidRoomID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	room, err := h.service.GetRoom(r.Context(), principal, roomID)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID, "room_id", roomID).
			WarnContext(r.Context(), "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

// Create godoc
// @Summary Create a meeting room
// @Description Administrators only. Capacity defaults to 10.
// @Tags rooms
// @Accept json
// @Produce json
// @Param body body roomRequest true "Room"
// @Success 201 {object} roomDTO
// @Failure 403 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetingrooms [post]
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	req, err := decodeRoomRequest(w, r, maxFormBytes)
	if err != nil {
		h.writeDecodeError(r.Context(), w, "Create", err, req)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleFormError(r.Context(), w, err, req)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRoomDTO(room))
}

// Update godoc
// @Summary Update a meeting room
// @Description Administrators only.
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path int true "Room id"
// @Param body body roomRequest true "Room"
// @Success 200 {object} roomDTO
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetingrooms/{id} [put]
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := parseID(ps.ByName("id"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	req, err := decodeRoomRequest(w, r, maxFormBytes)
	if err != nil {
		h.writeDecodeError(r.Context(), w, "Update", err, req)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "room_id", roomID)

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "room update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleFormError(r.Context(), w, err, req)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

// Delete godoc
// @Summary Delete a meeting room
// @Description Administrators only. Deleting a room deletes its bookings.
// @Tags rooms
// @Param id path int true "Room id"
// @Success 204
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /api/meetingrooms/{id} [delete]
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := parseID(ps.ByName("id"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "room_id", roomID)
	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		logger.WarnContext(r.Context(), "room delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *RoomHandler) writeDecodeError(ctx context.Context, w http.ResponseWriter, operation string, err error, req roomRequest) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		h.responder.handleFormError(ctx, w, err, req)
		return
	}
	h.log(ctx, operation, "error_kind", "bad_request").WarnContext(ctx, "failed to decode room request", "error", err)
	h.responder.writeError(ctx, w, requestStatus(err), err)
}
