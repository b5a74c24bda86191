// Package pipeline drives a canvas without a display: it places images,
// shapes and text, then exports the cropped result to a file, a scene store
// or both. Batch applies one filter stack to a directory of images
// concurrently.
package pipeline
