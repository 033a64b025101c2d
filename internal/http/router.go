package http

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	httpSwagger "github.com/swaggo/http-swagger"

	// Registers the machine API document served under /swagger.
	_ "github.com/example/meeting-rooms/internal/http/docs"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Rooms    *RoomHandler
	Bookings *BookingHandler

	// Sessions guards the browser surface, Tokens the machine API.
	Sessions SessionValidator
	Tokens   TokenVerifier

	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	resp := newResponder(logger)

	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: http.StatusText(http.StatusMethodNotAllowed)})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		resp.loggerFor(r.Context()).ErrorContext(r.Context(), "handler panicked", "panic", v)
		resp.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)})
	}

	session := func(h httprouter.Handle) httprouter.Handle { return h }
	if cfg.Sessions != nil {
		requireSession := RequireSession(cfg.Sessions, logger)
		session = func(h httprouter.Handle) httprouter.Handle { return guard(requireSession, h) }
	}
	admin := func(h httprouter.Handle) httprouter.Handle {
		return session(guard(RequireAdmin(logger), h))
	}
	bearer := func(h httprouter.Handle) httprouter.Handle { return h }
	if cfg.Tokens != nil {
		requireBearer := RequireBearer(cfg.Tokens, logger)
		bearer = func(h httprouter.Handle) httprouter.Handle { return guard(requireBearer, h) }
	}

	if cfg.Users != nil {
		router.POST("/signup", cfg.Users.Signup)
		router.GET("/accounts/me", session(cfg.Users.Me))
	}

	if cfg.Auth != nil {
		router.POST("/accounts/login", cfg.Auth.Login)
		router.POST("/accounts/logout", session(cfg.Auth.Logout))
		router.POST("/api/token", cfg.Auth.IssueToken)
	}

	if b := cfg.Bookings; b != nil {
		router.GET("/", session(b.Dashboard))
		router.GET("/create", session(b.NewForm))
		router.POST("/create", session(b.Create))
		router.GET("/meetings", session(b.MyMeetings))
		router.GET("/meetings/:id", session(b.Detail))
		router.GET("/meetings/:id/edit", session(b.EditForm))
		router.POST("/meetings/:id/edit", session(b.Edit))
		router.GET("/meetings/:id/delete", session(b.DeleteConfirm))
		router.POST("/meetings/:id/delete", session(b.Delete))
		router.GET("/meetings/:id/minutes", session(b.Minutes))
		router.GET("/all_meetings", session(b.AllMeetings))

		router.GET("/api/meetings", bearer(b.ListAPI))
		router.POST("/api/meetings", bearer(b.CreateAPI))
		router.GET("/api/meetings/:id", bearer(b.GetAPI))
		router.PUT("/api/meetings/:id", bearer(b.UpdateAPI))
		router.DELETE("/api/meetings/:id", bearer(b.DeleteAPI))
	}

	if rooms := cfg.Rooms; rooms != nil {
		router.GET("/admin/rooms", admin(rooms.List))
		router.POST("/admin/rooms", admin(rooms.Create))
		router.GET("/admin/rooms/:id", admin(rooms.Get))
		router.PUT("/admin/rooms/:id", admin(rooms.Update))
		router.DELETE("/admin/rooms/:id", admin(rooms.Delete))

		router.GET("/api/meetingrooms", bearer(rooms.List))
		router.POST("/api/meetingrooms", bearer(rooms.Create))
		router.GET("/api/meetingrooms/:id", bearer(rooms.Get))
		router.PUT("/api/meetingrooms/:id", bearer(rooms.Update))
		router.DELETE("/api/meetingrooms/:id", bearer(rooms.Delete))
	}

	router.Handler(http.MethodGet, "/swagger/*any", httpSwagger.WrapHandler)

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

// RequireAdmin answers 403 unless the authenticated principal is an administrator.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || !principal.IsAdmin {
				responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
					ErrorCode: "AUTH_FORBIDDEN",
					Message:   statusMessage(http.StatusForbidden),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// guard runs a net/http middleware in front of a router handle.
func guard(mw func(http.Handler) http.Handler, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h(w, r, ps)
		})).ServeHTTP(w, r)
	}
}
