// Package ocr reads part labels inside detection boxes using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Each box
// is cropped from the target image, upscaled when it is short, and passed to
// Tesseract as an in-memory PNG.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//
// The default language is English ("eng").
//
// # Testing
//
// Tests use the standard testing package, with fixture images drawn in
// the test itself, as the other adapted image-processing packages do.
package ocr
