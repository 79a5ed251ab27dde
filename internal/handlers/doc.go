// Package handlers provides HTTP request handlers for the culling API.
//
// It includes handlers for:
//   - Opening, reloading, and listing the raw library
//   - Thumbnail delivery from the preview cache
//   - Ratings and rating-based filtering
//   - Export jobs and their reports
//   - Similarity groups
//   - Health checks and version info
package handlers
