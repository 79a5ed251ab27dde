// Package rating keeps the session-scoped scores that drive filtering
// and export selection. Nothing here persists; a directory change
// resets the store.
package rating
