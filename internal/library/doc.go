// Package library holds the culling session: one open directory of
// Fujifilm raw files with its thumbnail loader, ratings, similarity
// index, and export pipeline. A Session is the single object the HTTP
// layer talks to.
//
// Directory scans are flat; a Watcher can reload the session when raw
// files appear or disappear under the open directory.
package library
