// Package plex implements a typed HTTP client for the Plex Media Server API
// and the plex.tv account API.
//
// [Client] talks to a media server with an access token: playlists, library
// searches, tag edits, downloads, update status. [Account] talks to plex.tv:
// sign-in (with optional two-factor code), server resources and home users.
// Both accept an [HTTPDoer] so tests can substitute transports.
//
// Smart playlist filter expressions are modeled by [SmartFilter], parsed from
// and encoded back to the content URI the server stores for smart playlists.
package plex
