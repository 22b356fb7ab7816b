// Package annotate adapts Google Cloud Vision to the annotation capability
// used by the describer.
//
// A Client wraps a single vision ImageAnnotatorClient created from a
// service-account credentials file. It exposes three single-feature calls,
// each issuing one request for one image:
//
//   - DominantColor: image properties, first (highest scored) color
//   - BestLabel: label detection, highest topicality
//   - FirstTextLine: text detection, first line of the full text
//
// Each call reports whether the service returned anything; an empty result
// is not an error. Transient transport failures are retried with
// exponential backoff before being returned.
//
// The Client is created once by the caller and passed to the describer.
// Close releases the underlying connection.
package annotate
