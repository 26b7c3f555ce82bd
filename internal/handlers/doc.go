// Package handlers provides the HTTP handlers of the gallery service.
//
// It includes handlers for:
//   - Album listing
//   - Justified layouts of an album for a given width
//   - Size-suffixed thumbnails and original images
//   - Health checks, version and metrics
package handlers
