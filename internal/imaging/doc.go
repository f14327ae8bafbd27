// Package imaging provides the pixel-level building blocks of the matching
// pipeline.
//
// It covers decoding and caching input files, the grayscale and binarization
// pre-pass, Gaussian smoothing, adaptive thresholding, Canny edge detection,
// and the crop/resample helpers used by the similarity scorer. Every function
// works on standard Go image types with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For rectangles, Min is inclusive and Max is exclusive
//
// Functions that return a *image.Gray re-base it so that its bounds start at
// (0,0), except CropGray, which returns a view in its source's coordinates.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and never mutates its inputs, so images may be shared between
// goroutines while a matching call is running.
//
// # Error Handling
//
// Decoding failures are reported as ErrImageDecode (test with errors.Is).
// File system errors are returned wrapped but distinct from it.
//
// # Testing
//
// Tests use the standard testing package, with fixture images drawn in
// the test itself, as the other adapted image-processing packages do.
package imaging
