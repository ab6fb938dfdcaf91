// Package catalog talks to the remote media catalog (a Jellyfin-compatible
// server) on behalf of the sync run: listing the user's favorited audio
// tracks, downloading source audio, and downloading album art.
//
// Listing is paginated transparently and validated field by field; a
// response missing a required field is a network error, never a silent
// zero value. All requests share a rate limiter so a large favorites set
// does not hammer the server.
package catalog
