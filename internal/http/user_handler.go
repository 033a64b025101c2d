package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/example/meeting-rooms/internal/application"
)

type userService interface {
	Signup(ctx context.Context, input application.SignupInput) (application.User, error)
	GetUser(ctx context.Context, id int64) (application.User, error)
}

type sessionIssuer interface {
	IssueSession(ctx context.Context, user application.User) (application.AuthenticateResult, error)
}

// UserHandler serves account creation and the current account.
type UserHandler struct {
	service       userService
	sessions      sessionIssuer
	secureCookies bool
	responder     responder
	logger        *slog.Logger
}

func NewUserHandler(service userService, sessions sessionIssuer, secureCookies bool, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{
		service:       service,
		sessions:      sessions,
		secureCookies: secureCookies,
		responder:     newResponder(base),
		logger:        base,
	}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// Signup creates a regular account and logs it in.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	input, err := decodeSignup(w, r, maxFormBytes)
	if err != nil {
		h.log(r.Context(), "Signup", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode signup request", "error", err)
		h.responder.writeError(r.Context(), w, requestStatus(err), err)
		return
	}

	logger := h.log(r.Context(), "Signup", "username", input.Username)
	echo := signupEcho{Username: input.Username, Email: input.Email}

	user, err := h.service.Signup(r.Context(), input)
	if err != nil {
		logger.WarnContext(r.Context(), "signup rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleFormError(r.Context(), w, err, echo)
		return
	}

	result, err := h.sessions.IssueSession(r.Context(), user)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to start session after signup", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt, h.secureCookies)
	w.Header().Set("X-Session-Token", result.Session.Token)
	w.Header().Set("Location", "/")

	logger.With("user_id", user.ID).InfoContext(r.Context(), "account created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newLoginResponse(result))
}

// Me returns the account behind the current session.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.GetUser(r.Context(), principal.UserID)
	if err != nil {
		h.log(r.Context(), "Me", "principal_id", principal.UserID).
			ErrorContext(r.Context(), "failed to load current user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

type signupEcho struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
