package http

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/meeting-rooms/internal/application"
)

const (
	minutesField        = "minutes_file"
	multipartMemorySize = 8 << 20
)

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func isMultipartRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseForm reads a urlencoded or multipart body. A body over the limit is
// reported as errUploadTooLarge.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	var err error
	if isMultipartRequest(r) {
		err = r.ParseMultipartForm(multipartMemorySize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errUploadTooLarge
		}
		return errBadRequestBody
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errUploadTooLarge
		}
		return errBadRequestBody
	}
	return nil
}

// bookingRequest is a decoded booking form plus its optional minutes file.
type bookingRequest struct {
	Input   application.BookingInput
	Minutes *application.Upload
	file    multipart.File
}

func (b *bookingRequest) Close() {
	if b != nil && b.file != nil {
		_ = b.file.Close()
	}
}

func decodeBookingRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (*bookingRequest, error) {
	req := &bookingRequest{}
	if isJSONRequest(r) {
		if err := decodeJSON(w, r, maxBytes, &req.Input); err != nil {
			return nil, err
		}
		return req, nil
	}

	if err := parseForm(w, r, maxBytes); err != nil {
		return nil, err
	}
	req.Input = application.BookingInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		RoomID:      r.PostFormValue("room"),
		Start:       r.PostFormValue("start_time"),
		End:         r.PostFormValue("end_time"),
	}

	if r.MultipartForm != nil && len(r.MultipartForm.File[minutesField]) > 0 {
		file, header, err := r.FormFile(minutesField)
		if err != nil {
			return nil, errBadRequestBody
		}
		req.file = file
		req.Minutes = &application.Upload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}
	return req, nil
}

// roomRequest accepts capacity as a JSON number or a form string.
type roomRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity *int   `json:"capacity"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Name:     strings.TrimSpace(r.Name),
		Location: strings.TrimSpace(r.Location),
		Capacity: r.Capacity,
	}
}

func decodeRoomRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (roomRequest, error) {
	var req roomRequest
	if isJSONRequest(r) {
		err := decodeJSON(w, r, maxBytes, &req)
		return req, err
	}

	if err := parseForm(w, r, maxBytes); err != nil {
		return req, err
	}
	req.Name = r.PostFormValue("name")
	req.Location = r.PostFormValue("location")
	if raw := strings.TrimSpace(r.PostFormValue("capacity")); raw != "" {
		capacity, err := strconv.Atoi(raw)
		if err != nil {
			return req, &application.ValidationError{FieldErrors: map[string]string{
				"capacity": "Enter a whole number.",
			}}
		}
		req.Capacity = &capacity
	}
	return req, nil
}

func decodeCredentials(w http.ResponseWriter, r *http.Request, maxBytes int64) (loginRequest, error) {
	var req loginRequest
	if isJSONRequest(r) {
		err := decodeJSON(w, r, maxBytes, &req)
		return req, err
	}
	if err := parseForm(w, r, maxBytes); err != nil {
		return req, err
	}
	req.Username = r.PostFormValue("username")
	req.Password = r.PostFormValue("password")
	return req, nil
}

func decodeSignup(w http.ResponseWriter, r *http.Request, maxBytes int64) (application.SignupInput, error) {
	var input application.SignupInput
	if isJSONRequest(r) {
		err := decodeJSON(w, r, maxBytes, &input)
		return input, err
	}
	if err := parseForm(w, r, maxBytes); err != nil {
		return input, err
	}
	input.Username = r.PostFormValue("username")
	input.Email = r.PostFormValue("email")
	input.Password1 = r.PostFormValue("password1")
	input.Password2 = r.PostFormValue("password2")
	return input, nil
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requestStatus maps decode errors to their response status.
func requestStatus(err error) int {
	switch {
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}
