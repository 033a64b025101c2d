package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/meeting-rooms/internal/application"
)

// maxFormBytes bounds request bodies that never carry files.
const maxFormBytes = 1 << 20

type authService interface {
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	VerifyCredentials(ctx context.Context, username, password string) (application.User, error)
	RevokeSession(ctx context.Context, token string) error
}

type tokenIssuer interface {
	Issue(principal application.Principal) (string, time.Time, error)
}

// AuthHandler serves browser login/logout and the machine API token endpoint.
type AuthHandler struct {
	service       authService
	tokens        tokenIssuer
	secureCookies bool
	responder     responder
	logger        *slog.Logger
}

func NewAuthHandler(service authService, tokens tokenIssuer, secureCookies bool, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{
		service:       service,
		tokens:        tokens,
		secureCookies: secureCookies,
		responder:     newResponder(base),
		logger:        base,
	}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Login godoc
// @Summary Log in
// @Description Exchange a username and password for a session token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 201 {object} loginResponse
// @Failure 401 {object} errorResponse
// @Router /accounts/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	req, err := decodeCredentials(w, r, maxFormBytes)
	if err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, requestStatus(err), err)
		return
	}

	username := strings.TrimSpace(req.Username)
	logger := h.log(r.Context(), "Login", "username", username)

	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{
		Username: username,
		Password: req.Password,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "authentication rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt, h.secureCookies)
	w.Header().Set("X-Session-Token", result.Session.Token)

	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "user logged in")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newLoginResponse(result))
}

// Logout revokes the session that authenticated the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := sessionTokenFromContext(r.Context())
	if token == "" {
		token = extractTokenFromRequest(r)
	}
	if token == "" {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_REQUIRED",
			Message:   errMissingSessionToken.Error(),
		})
		return
	}

	logger := h.log(r.Context(), "Logout")
	if err := h.service.RevokeSession(r.Context(), token); err != nil {
		logger.ErrorContext(r.Context(), "failed to revoke session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	clearSessionCookie(w, h.secureCookies)
	logger.InfoContext(r.Context(), "user logged out")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// IssueToken godoc
// @Summary Obtain an API token
// @Description Exchange a username and password for a signed bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} tokenResponse
// @Failure 401 {object} errorResponse
// @Router /api/token [post]
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil || h.tokens == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	req, err := decodeCredentials(w, r, maxFormBytes)
	if err != nil {
		h.responder.writeError(r.Context(), w, requestStatus(err), err)
		return
	}

	username := strings.TrimSpace(req.Username)
	logger := h.log(r.Context(), "IssueToken", "username", username)

	user, err := h.service.VerifyCredentials(r.Context(), username, req.Password)
	if err != nil {
		logger.WarnContext(r.Context(), "token request rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	token, expires, err := h.tokens.Issue(application.Principal{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to sign token", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "api token issued")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, tokenResponse{
		Access:    token,
		TokenType: "Bearer",
		ExpiresAt: expires.UTC().Format(time.RFC3339),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      userDTO `json:"user"`
}

func newLoginResponse(result application.AuthenticateResult) loginResponse {
	return loginResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339Nano),
		User:      toUserDTO(result.User),
	}
}

type tokenResponse struct {
	Access    string `json:"access"`
	TokenType string `json:"token_type"`
	ExpiresAt string `json:"expires_at"`
}
