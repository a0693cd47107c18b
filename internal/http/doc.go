// Package http exposes the class scheduling engine over a JSON API.
//
// The router exposes the following endpoints:
//   - POST /series: creates a recurring series from a `seriesRequest` body. Responds
//     201 with the number of classes booked and the occurrences rejected as conflicts.
//   - GET /series?gym_id=: lists a gym's series.
//   - GET /series/{seriesID}: returns the series and the classes still linked to it.
//   - DELETE /series/{seriesID}?scope=future|all: removes future occurrences, or every
//     occurrence and the series row. Returns 204 No Content.
//   - GET /series/{seriesID}/calendar.ics: the linked classes as an iCalendar feed.
//   - POST /classes: books one standalone class. Responds 201 on success and 409 with
//     the joined conflict reason when the location or coach is busy.
//   - GET /classes?gym_id=&from=&to=&status=: lists classes with overlap warnings.
//   - GET /classes/{classID}: returns one class.
//   - PATCH /classes/{classID}: partially updates one class; `break_from_series`
//     detaches it from its series. Responds 409 when the new location is busy.
//   - GET /healthz: storage liveness, exempt from the API key guard.
//
// Timestamps are rendered in the configured tenant zone as RFC 3339 strings. Request
// timestamps may carry an offset or be given as local wall-clock values.
package http
