// Package imaging provides the color and image-source primitives used by the
// describer.
//
// This package implements the basic color classifier, which maps an RGB
// triple to one of eleven fixed color names, and a reader for image files
// that keeps their raw bytes for upload. No pixel data is ever decoded here;
// all image analysis is delegated to the annotation service.
//
// # Color Classification
//
// Classify is a pure, total function. Every integer triple, including
// negative or out-of-range channel values, maps to exactly one ColorName:
//
//   - White, Black: all channels above 200 or all below 50
//   - Gray: every pairwise channel difference below 30
//   - Red, Orange, Yellow, Green, Cyan, Magenta, Blue: chosen by the
//     channel holding the maximum value, with red tested first, then
//     green, then blue
//   - Mixed: the unreachable default
//
// # Thread Safety
//
// Classify and Hex are stateless and can be called concurrently. SourceCache
// is safe for concurrent use.
//
// # Error Handling
//
// Functions return errors for:
//   - Missing or unreadable image files
//   - Empty files or files over the upload size limit
package imaging
