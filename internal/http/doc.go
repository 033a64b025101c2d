// Package http provides the HTTP handlers and middleware for the meeting room
// booking service.
//
// The router exposes two surfaces. The browser surface authenticates with a
// session token taken from the `session_token` cookie or an
// `Authorization: Bearer` header:
//   - POST /signup, POST /accounts/login, POST /accounts/logout, GET /accounts/me
//   - GET / for the dashboard counts
//   - GET|POST /create, GET /meetings, GET /all_meetings
//   - GET /meetings/{id}, GET|POST /meetings/{id}/edit,
//     GET|POST /meetings/{id}/delete, GET /meetings/{id}/minutes
//   - GET|POST /admin/rooms, GET|PUT|DELETE /admin/rooms/{id} for administrators
//
// Booking forms accept urlencoded, multipart or JSON bodies. A multipart body
// may carry the minutes document in `minutes_file`.
//
// The machine API requires a signed bearer token from POST /api/token:
//   - GET|POST /api/meetingrooms, GET|PUT|DELETE /api/meetingrooms/{id}
//   - GET|POST /api/meetings, GET|PUT|DELETE /api/meetings/{id}
//
// and is documented under /swagger/.
//
// Validation failures answer 422 with an `errors` map and the submitted
// input, booking collisions answer 409 and bookings outside the caller's
// reach answer 404.
//
// @title Meeting Rooms API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package http
