// Package library defines the on-disk layout of the sync directory: the
// SyncKey joining remote tracks to local files, filename sanitization, and
// the local index scan.
//
// A SyncKey is the slash-separated relative path of a track inside the sync
// root, always three segments deep: artist/album/title.mp3. Key construction
// and parsing live side by side here so the two directions cannot drift.
package library
