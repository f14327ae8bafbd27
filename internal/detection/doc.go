// Package detection splits an image into candidate object regions.
//
// Segment turns a frame into the outer contours of the objects in it. Each
// contour becomes a Region carrying its bounding box, its moment centroid,
// the compressed boundary and a view of the segmented pixels, which the
// matching package compares against a reference.
//
// # Pipeline
//
//  1. Grayscale conversion
//  2. Gaussian blur (BlurSize, binomial weights)
//  3. Gaussian adaptive threshold (BlockSize, C)
//  4. Canny edge detection (CannyLow, CannyHigh)
//  5. 8-connected edge components, in raster order of their first pixel
//  6. Outer-contour filter: a component is kept when the image exterior
//     reaches it, so outlines nested inside another outline (holes, the
//     inner side of a thick border) are dropped
//  7. Moore boundary trace, compressed to the points where the direction
//     changes, then Green's-theorem moments for area and centroid
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Region exposes its box both as X/Y/Width/Height and as Bounds, whose X2/Y2
// are exclusive. Input images with a non-zero origin are re-based, so region
// coordinates are always relative to the image's top-left pixel.
//
// # Determinism
//
// Segment has no randomness and no concurrency of its own. The same image
// always yields the same regions in the same order, and a contour always
// starts at its topmost, then leftmost, pixel.
//
// # Testing
//
// Tests use the standard testing package, with fixture images drawn in
// the test itself, as the other adapted image-processing packages do.
package detection
