package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/meeting-rooms/internal/persistence"
	"github.com/example/meeting-rooms/internal/scheduler"
	"github.com/example/meeting-rooms/internal/timezone"
)

// BookingRepository captures the persistence operations needed by the booking workflow.
type BookingRepository interface {
	GetBooking(ctx context.Context, id int64) (Booking, error)
	// ListBookings returns bookings ordered by start descending then id
	// descending. A zero organizerID lists every booking.
	ListBookings(ctx context.Context, organizerID int64) ([]Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
	// WithRoomLock runs fn in a transaction holding an exclusive lock on the
	// room. It fails with persistence.ErrNotFound when the room is missing.
	WithRoomLock(ctx context.Context, roomID int64, fn func(tx BookingTx) error) error
}

// BookingTx is the set of booking operations available inside a room lock.
type BookingTx interface {
	OverlappingBookings(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]Booking, error)
	InsertBooking(ctx context.Context, booking Booking) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
}

// ListBookingsParams wraps a filtered listing request.
type ListBookingsParams struct {
	Principal Principal
	Scope     ViewerScope
	Filters   FilterParams
}

// NotifyTimeout bounds how long a committed write waits on the notifier.
const NotifyTimeout = 5 * time.Second

// BookingService runs the booking workflow: validation, conflict detection
// under the room lock, ownership checks and attachment handling.
type BookingService struct {
	bookings  BookingRepository
	rooms     RoomRepository
	blobs     BlobStore
	notifier  BookingNotifier
	zone      timezone.Normalizer
	validator *inputValidator
	now       func() time.Time
	logger    *slog.Logger
}

// NewBookingService constructs a BookingService. blobs and notifier may be nil.
func NewBookingService(bookings BookingRepository, rooms RoomRepository, blobs BlobStore, notifier BookingNotifier, zone timezone.Normalizer, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, blobs, notifier, zone, now, nil)
}

// NewBookingServiceWithLogger constructs a BookingService with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, rooms RoomRepository, blobs BlobStore, notifier BookingNotifier, zone timezone.Normalizer, now func() time.Time, logger *slog.Logger) *BookingService {
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:  bookings,
		rooms:     rooms,
		blobs:     blobs,
		notifier:  notifier,
		zone:      zone,
		validator: newInputValidator(),
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Zone returns the display zone used for form values.
func (s *BookingService) Zone() timezone.Normalizer {
	return s.zone
}

// IsOwnerOrAdmin reports whether principal may see and change booking in the
// organizer-scoped views.
func IsOwnerOrAdmin(principal Principal, booking Booking) bool {
	if principal.UserID <= 0 {
		return false
	}
	return principal.IsAdmin || booking.OrganizerID == principal.UserID
}

// CreateForm returns the blank booking form with the room choices.
func (s *BookingService) CreateForm(ctx context.Context, principal Principal) (form BookingForm, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if principal.UserID <= 0 {
		err = ErrUnauthorized
		return
	}
	form.Rooms, err = s.roomChoices(ctx)
	return
}

// EditForm returns the form for an existing booking with its times rendered
// in the display zone.
func (s *BookingService) EditForm(ctx context.Context, principal Principal, bookingID int64) (form BookingForm, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	var current Booking
	current, err = s.ownedBooking(ctx, principal, bookingID)
	if err != nil {
		return
	}

	form.Booking = &current
	form.Initial = BookingInput{
		Title:  current.Title,
		RoomID: strconv.FormatInt(current.RoomID, 10),
		Start:  s.zone.Display(current.Start),
		End:    s.zone.Display(current.End),
	}
	if current.Description != nil {
		form.Initial.Description = *current.Description
	}
	form.Rooms, err = s.roomChoices(ctx)
	return
}

// CreateBooking validates the form, checks for conflicts under the room lock
// and stores the booking with the principal as organizer.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.UserID,
		"room", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking created")
	}()

	if params.Principal.UserID <= 0 {
		err = ErrUnauthorized
		return
	}

	fields, vErr := s.parseInput(params.Input)
	vErr.merge(validateUpload(params.Minutes))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var stored *Attachment
	stored, err = s.storeUpload(ctx, params.Minutes)
	if err != nil {
		return
	}
	defer func() {
		if err != nil && stored != nil {
			s.discardBlob(ctx, logger, stored.Key)
		}
	}()

	err = s.bookings.WithRoomLock(ctx, fields.roomID, func(tx BookingTx) error {
		if conflictErr := s.checkConflict(ctx, tx, fields, 0); conflictErr != nil {
			return conflictErr
		}
		created, insertErr := tx.InsertBooking(ctx, Booking{
			Title:       fields.title,
			Description: fields.description,
			OrganizerID: params.Principal.UserID,
			RoomID:      fields.roomID,
			Start:       fields.start,
			End:         fields.end,
			IsActive:    true,
			Minutes:     stored,
			CreatedAt:   s.now(),
		})
		if insertErr != nil {
			return insertErr
		}
		booking = created
		return nil
	})
	if err != nil {
		booking = Booking{}
		err = s.mapWriteError(ctx, err, fields.roomID)
		return
	}

	s.notify(ctx, logger, BookingCreated, booking, params.Principal)
	return
}

// UpdateBooking edits a booking owned by the principal, or any booking for an
// administrator. The booking never conflicts with itself. Without a new
// upload the previous attachment is kept.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking updated")
	}()

	var current Booking
	current, err = s.ownedBooking(ctx, params.Principal, params.BookingID)
	if err != nil {
		return
	}

	fields, vErr := s.parseInput(params.Input)
	vErr.merge(validateUpload(params.Minutes))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var stored *Attachment
	stored, err = s.storeUpload(ctx, params.Minutes)
	if err != nil {
		return
	}
	defer func() {
		if err != nil && stored != nil {
			s.discardBlob(ctx, logger, stored.Key)
		}
	}()

	err = s.bookings.WithRoomLock(ctx, fields.roomID, func(tx BookingTx) error {
		if conflictErr := s.checkConflict(ctx, tx, fields, current.ID); conflictErr != nil {
			return conflictErr
		}
		next := current
		next.Title = fields.title
		next.Description = fields.description
		next.RoomID = fields.roomID
		next.Start = fields.start
		next.End = fields.end
		if stored != nil {
			next.Minutes = stored
		}
		updated, updateErr := tx.UpdateBooking(ctx, next)
		if errors.Is(updateErr, persistence.ErrNotFound) {
			return ErrNotFound
		}
		if updateErr != nil {
			return updateErr
		}
		booking = updated
		return nil
	})
	if err != nil {
		booking = Booking{}
		err = s.mapWriteError(ctx, err, fields.roomID)
		return
	}

	if stored != nil && current.Minutes != nil && current.Minutes.Key != stored.Key {
		s.discardBlob(ctx, logger, current.Minutes.Key)
	}
	s.notify(ctx, logger, BookingUpdated, booking, params.Principal)
	return
}

// DeleteBooking removes a booking owned by the principal, or any booking for
// an administrator, together with its attachment.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID int64) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking deleted")
	}()

	var current Booking
	current, err = s.ownedBooking(ctx, principal, bookingID)
	if err != nil {
		return
	}

	if err = s.bookings.DeleteBooking(ctx, current.ID); err != nil {
		err = mapBookingRepoError(err)
		return
	}

	if current.Minutes != nil {
		s.discardBlob(ctx, logger, current.Minutes.Key)
	}
	s.notify(ctx, logger, BookingDeleted, current, principal)
	return nil
}

// GetBooking returns one booking. With ScopeMine only the organizer and
// administrators can see it; everyone else gets ErrNotFound.
func (s *BookingService) GetBooking(ctx context.Context, params GetBookingParams) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if params.Scope == ScopeAll {
		if params.Principal.UserID <= 0 {
			return Booking{}, ErrUnauthorized
		}
		booking, err := s.bookings.GetBooking(ctx, params.BookingID)
		if err != nil {
			return Booking{}, mapBookingRepoError(err)
		}
		return booking, nil
	}
	return s.ownedBooking(ctx, params.Principal, params.BookingID)
}

// ListBookings filters and paginates the principal's bookings (ScopeMine)
// or every booking (ScopeAll).
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (page BookingPage, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", params.Principal.UserID,
		"scope", params.Scope,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("total", page.Total, "page", page.Page).DebugContext(ctx, "bookings listed")
	}()

	if params.Principal.UserID <= 0 {
		err = ErrUnauthorized
		return
	}

	scope := params.Scope
	var organizerID int64
	if scope != ScopeAll {
		scope = ScopeMine
		organizerID = params.Principal.UserID
	}

	var collection []Booking
	collection, err = s.bookings.ListBookings(ctx, organizerID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	page, err = FilterBookings(collection, scope, params.Filters, s.zone, s.now())
	return
}

// Dashboard counts the principal's bookings by status.
func (s *BookingService) Dashboard(ctx context.Context, principal Principal) (DashboardCounts, error) {
	if s == nil {
		return DashboardCounts{}, fmt.Errorf("BookingService is nil")
	}
	if principal.UserID <= 0 {
		return DashboardCounts{}, ErrUnauthorized
	}

	bookings, err := s.bookings.ListBookings(ctx, principal.UserID)
	if err != nil {
		err = mapBookingRepoError(err)
		s.loggerWith(ctx, "Dashboard", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to load dashboard", "error", err, "error_kind", ErrorKind(err))
		return DashboardCounts{}, err
	}

	now := s.now()
	var counts scheduler.Counts
	for _, b := range bookings {
		counts.Add(b.Start, b.End, now)
	}
	return DashboardCounts{
		Total:    counts.Total,
		Upcoming: counts.Upcoming,
		Ongoing:  counts.Ongoing,
		Ended:    counts.Ended,
		Now:      now,
	}, nil
}

// OpenMinutes opens the attachment of a booking visible to the principal.
// The caller closes the returned reader.
func (s *BookingService) OpenMinutes(ctx context.Context, principal Principal, bookingID int64) (Attachment, io.ReadCloser, error) {
	if s == nil {
		return Attachment{}, nil, fmt.Errorf("BookingService is nil")
	}
	booking, err := s.ownedBooking(ctx, principal, bookingID)
	if err != nil {
		return Attachment{}, nil, err
	}
	if booking.Minutes == nil || s.blobs == nil {
		return Attachment{}, nil, ErrNotFound
	}
	rc, err := s.blobs.Open(ctx, booking.Minutes.Key)
	if err != nil {
		s.loggerWith(ctx, "OpenMinutes", "booking_id", bookingID).
			ErrorContext(ctx, "failed to open minutes", "error", err, "error_kind", ErrorKind(err))
		return Attachment{}, nil, err
	}
	return *booking.Minutes, rc, nil
}

func (s *BookingService) ownedBooking(ctx context.Context, principal Principal, bookingID int64) (Booking, error) {
	if principal.UserID <= 0 {
		return Booking{}, ErrUnauthorized
	}
	if s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	if !IsOwnerOrAdmin(principal, booking) {
		return Booking{}, ErrNotFound
	}
	return booking, nil
}

func (s *BookingService) roomChoices(ctx context.Context) ([]Room, error) {
	if s.rooms == nil {
		return nil, nil
	}
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, mapRoomRepoError(err)
	}
	return rooms, nil
}

type bookingFields struct {
	title       string
	description *string
	roomID      int64
	start       time.Time
	end         time.Time
}

// parseInput validates the raw form and resolves times in the display zone.
// The returned ValidationError is never nil.
func (s *BookingService) parseInput(input BookingInput) (bookingFields, *ValidationError) {
	input.Title = strings.TrimSpace(input.Title)
	input.RoomID = strings.TrimSpace(input.RoomID)
	input.Start = strings.TrimSpace(input.Start)
	input.End = strings.TrimSpace(input.End)

	vErr := &ValidationError{}
	vErr.merge(s.validator.Struct(input))

	fields := bookingFields{
		title:       input.Title,
		description: optionalString(input.Description),
	}

	if _, failed := vErr.FieldErrors["room"]; !failed {
		id, err := strconv.ParseInt(input.RoomID, 10, 64)
		if err != nil || id <= 0 {
			vErr.add("room", msgInvalidChoice)
		}
		fields.roomID = id
	}

	parse := func(field, value string) time.Time {
		if _, failed := vErr.FieldErrors[field]; failed {
			return time.Time{}
		}
		t, err := s.zone.Parse(value)
		switch {
		case err == nil:
			return t
		case errors.Is(err, timezone.ErrNonexistent), errors.Is(err, timezone.ErrAmbiguous):
			vErr.add(field, fmt.Sprintf("%s couldn't be interpreted in time zone %s; it may be ambiguous or it may not exist.", value, s.zone.Name()))
		default:
			vErr.add(field, msgInvalidDateTime)
		}
		return time.Time{}
	}
	fields.start = parse("start_time", input.Start)
	fields.end = parse("end_time", input.End)

	if !fields.start.IsZero() && !fields.end.IsZero() && !fields.end.After(fields.start) {
		vErr.add("end_time", msgEndBeforeStart)
	}
	return fields, vErr
}

func validateUpload(upload *Upload) *ValidationError {
	if upload == nil || upload.Body == nil {
		return nil
	}
	vErr := &ValidationError{}
	if strings.TrimSpace(upload.FileName) == "" {
		vErr.add("minutes_file", "No file was submitted. Check the encoding type on the form.")
	} else if upload.Size == 0 {
		vErr.add("minutes_file", "The submitted file is empty.")
	}
	return vErr
}

func (s *BookingService) checkConflict(ctx context.Context, tx BookingTx, fields bookingFields, excludeID int64) error {
	existing, err := tx.OverlappingBookings(ctx, fields.roomID, fields.start, fields.end, excludeID)
	if err != nil {
		return err
	}

	candidates := make([]scheduler.Booking, 0, len(existing))
	byID := make(map[int64]Booking, len(existing))
	for _, b := range existing {
		candidates = append(candidates, scheduler.Booking{ID: b.ID, RoomID: b.RoomID, Start: b.Start, End: b.End})
		byID[b.ID] = b
	}

	hit, found := scheduler.FindConflict(candidates, scheduler.Candidate{
		RoomID:    fields.roomID,
		Start:     fields.start,
		End:       fields.end,
		ExcludeID: excludeID,
	})
	if !found {
		return nil
	}
	b := byID[hit.ID]
	return &ConflictError{
		RoomName:  b.RoomName,
		BookingID: b.ID,
		Title:     b.Title,
		Start:     s.zone.In(b.Start),
		End:       s.zone.In(b.End),
	}
}

// mapWriteError converts failures from the locked write into workflow errors.
func (s *BookingService) mapWriteError(ctx context.Context, err error, roomID int64) error {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		return conflict
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrOverlap):
		conflict = &ConflictError{RoomName: strconv.FormatInt(roomID, 10)}
		if s.rooms != nil {
			if room, roomErr := s.rooms.GetRoom(ctx, roomID); roomErr == nil {
				conflict.RoomName = room.Name
			}
		}
		return conflict
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, persistence.ErrForeignKeyViolation):
		return fieldError("room", msgInvalidChoice)
	case errors.Is(err, persistence.ErrConstraintViolation):
		return fieldError("end_time", msgEndBeforeStart)
	default:
		return err
	}
}

func (s *BookingService) storeUpload(ctx context.Context, upload *Upload) (*Attachment, error) {
	if upload == nil || upload.Body == nil {
		return nil, nil
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("blob store not configured")
	}
	stored, err := s.blobs.Save(ctx, *upload)
	if err != nil {
		return nil, fmt.Errorf("store minutes: %w", err)
	}
	return &stored, nil
}

// discardBlob deletes a blob and only logs failures.
func (s *BookingService) discardBlob(ctx context.Context, logger *slog.Logger, key string) {
	if s.blobs == nil || key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		logger.WarnContext(ctx, "failed to delete minutes blob", "key", key, "error", err)
	}
}

func (s *BookingService) notify(ctx context.Context, logger *slog.Logger, eventType BookingEventType, booking Booking, principal Principal) {
	if s.notifier == nil {
		return
	}
	event := BookingEvent{
		Type:       eventType,
		Booking:    booking,
		ActorID:    principal.UserID,
		OccurredAt: s.now(),
	}
	ctx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyBooking(ctx, event); err != nil {
		logger.WarnContext(ctx, "booking notification failed", "event", eventType, "error", err)
	}
}

func mapBookingRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
