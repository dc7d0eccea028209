// Package notify pushes unread-notification counts to connected clients
// over a long-lived server-sent-event stream.
//
// Each emission is a full replacement of the previous count, not a delta:
// the stream is a best-effort, eventually-consistent counter, not an event
// log. One independent timer runs per connection and is released the moment
// the client disconnects.
package notify
