// Package http provides HTTP handlers and middleware for the reservation API.
//
// Every route requires an `Authorization: Bearer <user-id>.<secret>` header.
// The router exposes the following endpoints:
//   - POST /events, GET/PUT/DELETE /events/{id}: event lifecycle. Bodies follow
//     application.EventPayload; each term names either `rooms` (room number to
//     ignore_conflicts flag) or a `place`. Collisions answer 409 with the
//     colliding terms under `conflicts`.
//   - POST /events/check-conflicts: dry run of a create or, with `event_id`, an
//     update. Always answers 200 with `{"conflicts": [...]}`.
//   - POST /special-reservations: weekly standing reservation of one room,
//     restricted to event managers.
//   - GET /terms: reservation listing filtered by `start`, `end`, `rooms`,
//     `place`, `types`, `statuses`, `title_author` and `visible`.
//   - GET /terms.ics and GET /reports/rooms.xlsx: the same listing rendered as
//     an iCalendar feed or a room occupancy workbook.
//   - GET /rooms, POST /rooms: room catalog. Registration requires manage permission.
//   - POST /users, GET /users/{id}: account registration for managers and
//     public profiles. `me` names the caller.
//
// Unknown JSON fields are rejected with 400.
package http
