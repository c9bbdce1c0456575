// Package http provides HTTP handlers and middleware for the sizzl API.
//
// The router exposes the following endpoints:
//   - POST /auth/code: mails a one-time login code. Body: {"email"}. Responds 202
//     with {"expires_at"}.
//   - POST /auth/verify: exchanges {"email","code"} for {"token","expires_at","user",
//     "needs_profile"}. The token is also set as the `session_token` cookie.
//   - POST /auth/refresh, DELETE /auth/session: extend or end the current session.
//   - GET /schedule/slots, POST /schedule/validate: the time picker labels, the
//     suggested schedule and a dry run of the scheduling and RSVP deadline rules.
//   - GET|PUT /me, GET /users?q=, GET /users/{id}: profiles and user search.
//   - GET|POST /events, GET|PUT|DELETE /events/{id}, POST /events/{id}/publish,
//     GET /events/{id}/calendar.ics, GET /events/slug/{slug}: events exchanging the
//     `eventRequest` and `eventDTO` payloads defined in event_handler.go. Calendar
//     dates in requests are read in the configured time zone; stored and returned
//     timestamps are absolute RFC 3339 values.
//   - GET|PUT|DELETE /events/{id}/rsvp, GET /events/{id}/guests: responses.
//   - POST /events/{id}/invitations, GET /invitations,
//     POST /invitations/{code}/accept|decline: invitations.
//   - GET /notifications, POST /notifications/{id}/read, POST /notifications/read.
//   - POST /media/images: multipart image upload in the `image` field.
//
// Every route except /auth/code, /auth/verify and /schedule/* requires a bearer
// token or the session cookie.
package http
