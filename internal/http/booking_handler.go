package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/timezone"
)

type bookingService interface {
	CreateForm(ctx context.Context, principal application.Principal) (application.BookingForm, error)
	EditForm(ctx context.Context, principal application.Principal, bookingID int64) (application.BookingForm, error)
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID int64) error
	GetBooking(ctx context.Context, params application.GetBookingParams) (application.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) (application.BookingPage, error)
	Dashboard(ctx context.Context, principal application.Principal) (application.DashboardCounts, error)
	OpenMinutes(ctx context.Context, principal application.Principal, bookingID int64) (application.Attachment, io.ReadCloser, error)
	Zone() timezone.Normalizer
}

// BookingHandler serves the organizer pages and the machine API for meetings.
type BookingHandler struct {
	service        bookingService
	maxUploadBytes int64
	now            func() time.Time
	responder      responder
	logger         *slog.Logger
}

func NewBookingHandler(service bookingService, maxUploadBytes int64, now func() time.Time, logger *slog.Logger) *BookingHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &BookingHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		now:            now,
		responder:      newResponder(base),
		logger:         base,
	}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) presenter(now time.Time) bookingPresenter {
	return bookingPresenter{zone: h.service.Zone(), now: now}
}

func (h *BookingHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// bookingID resolves :id, answering 404 for anything that is not a positive integer.
func (h *BookingHandler) bookingID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (int64, bool) {
	id, ok := parseID(ps.ByName("id"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errInvalidBookingID)
	}
	return id, ok
}

// Dashboard reports the caller's booking counts by status.
func (h *BookingHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	counts, err := h.service.Dashboard(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	zone := h.service.Zone()
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dashboardDTO{
		Username: principal.Username,
		Total:    counts.Total,
		Upcoming: counts.Upcoming,
		Ongoing:  counts.Ongoing,
		Ended:    counts.Ended,
		Now:      zone.In(counts.Now).Format(time.RFC3339),
		TimeZone: zone.Name(),
	})
}

// NewForm returns the blank booking form with its room choices.
func (h *BookingHandler) NewForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	form, err := h.service.CreateForm(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.formDTO(form, principal))
}

// Create books a room for the caller. Multipart bodies may carry a minutes_file.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	req, err := decodeBookingRequest(w, r, h.maxUploadBytes)
	if err != nil {
		logger.WarnContext(r.Context(), "failed to decode booking form", "error", err)
		h.responder.writeError(r.Context(), w, requestStatus(err), err)
		return
	}
	defer req.Close()

	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     req.Input,
		Minutes:   req.Minutes,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "booking rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleFormError(r.Context(), w, err, req.Input)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking created")
	w.Header().Set("Location", fmt.Sprintf("/meetings/%d", booking.ID))
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, h.presenter(h.now()).booking(booking, principal))
}

// MyMeetings lists the caller's bookings.
func (h *BookingHandler) MyMeetings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, application.ScopeMine)
}

// AllMeetings lists every booking, read only.
func (h *BookingHandler) AllMeetings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, application.ScopeAll)
}

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request, scope application.ViewerScope) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	q := r.URL.Query()

	page, err := h.service.ListBookings(r.Context(), application.ListBookingsParams{
		Principal: principal,
		Scope:     scope,
		Filters: application.FilterParams{
			Q:        q.Get("q"),
			Status:   q.Get("status"),
			DateFrom: q.Get("date_from"),
			DateTo:   q.Get("date_to"),
			Page:     q.Get("page"),
			PerPage:  q.Get("per_page"),
		},
	})
	if err != nil {
		h.responder.handleFormError(r.Context(), w, err, queryEcho(q.Get("q"), q.Get("status"), q.Get("date_from"), q.Get("date_to")))
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.presenter(page.Now).page(page, principal))
}

// Detail shows one of the caller's bookings.
func (h *BookingHandler) Detail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.show(w, r, ps, application.ScopeMine)
}

func (h *BookingHandler) show(w http.ResponseWriter, r *http.Request, ps httprouter.Params, scope application.ViewerScope) {
	if !h.ready(w) {
		return
	}
	id, ok := h.bookingID(w, r, ps)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	booking, err := h.service.GetBooking(r.Context(), application.GetBookingParams{
		Principal: principal,
		BookingID: id,
		Scope:     scope,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.presenter(h.now()).booking(booking, principal))
}

// EditForm returns the booking's current values in display zone wall time.
func (h *BookingHandler) EditForm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.ready(w) {
		return
	}
	id, ok := h.bookingID(w, r, ps)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	form, err := h.service.EditForm(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.formDTO(form, principal))
}

// Edit rewrites one of the caller's bookings.
func (h *BookingHandler) Edit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.ready(w) {
		return
	}
	id, ok := h.bookingID(w, r, ps)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Edit", "principal_id", principal.UserID, "booking_id", id)

	req, err := decodeBookingRequest(w, r, h.maxUploadBytes)
	if err != nil {
		logger.WarnContext(r.Context(), "failed to decode booking form", "error", err)
		h.responder.writeError(r.Context(), w, requestStatus(err), err)
		return
	}
	defer req.Close()

	booking, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: id,
		Input:     req.Input,
		Minutes:   req.Minutes,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "booking update rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleFormError(r.Context(), w, err, req.Input)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.presenter(h.now()).booking(booking, principal))
}

// DeleteConfirm returns the booking the caller is about to delete.
func (h *BookingHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.show(w, r, ps, application.ScopeMine)
}

// Delete removes one of the caller's bookings.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.ready(w) {
		return
	}
	id, ok := h.bookingID(w, r, ps)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "booking_id", id)

	if err := h.service.DeleteBooking(r.Context(), principal, id); err != nil {
		logger.WarnContext(r.Context(), "booking delete rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Minutes streams the booking's attached minutes document.
func (h *BookingHandler) Minutes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.ready(w) {
		return
	}
	id, ok := h.bookingID(w, r, ps)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	attachment, body, err := h.service.OpenMinutes(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.FileName}))
	if attachment.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log(r.Context(), "Minutes", "booking_id", id).WarnContext(r.Context(), "minutes download interrupted", "error", err)
	}
}

func (h *BookingHandler) formDTO(form application.BookingForm, principal application.Principal) bookingFormDTO {
	dto := bookingFormDTO{
		Initial:  form.Initial,
		Rooms:    toRoomDTOs(form.Rooms),
		TimeZone: h.service.Zone().Name(),
	}
	if form.Booking != nil {
		b := h.presenter(h.now()).booking(*form.Booking, principal)
		dto.Booking = &b
	}
	return dto
}

func queryEcho(q, status, dateFrom, dateTo string) map[string]string {
	return map[string]string{
		"q":         q,
		"status":    status,
		"date_from": dateFrom,
		"date_to":   dateTo,
	}
}
