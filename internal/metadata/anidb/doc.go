// Package anidb fetches anime metadata from the AniDB HTTP API.
//
// AniDB bans clients that request faster than one call every couple of
// seconds, so the client serializes requests behind a minimum interval. Any
// <error> reply other than "not found" latches the client into a failed state
// for the rest of the run.
package anidb
