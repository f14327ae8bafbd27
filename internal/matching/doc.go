// Package matching finds a reference object in a target image.
//
// The pipeline segments both images into regions, scores every target region
// against every reference region with SSIM, keeps candidates above a
// similarity threshold, removes overlapping duplicates, orders the survivors
// by a per-model policy, and plans placement boxes around each detection.
//
// # Units
//
// Thresholds are fractions (0.8 means 80%). Detection scores are percentages
// in [0, 100]. The comparison is done as score*100 >= threshold*100 so both
// sides use the same scale.
//
// # Determinism
//
// Every stage is deterministic for a given input: scoring runs concurrently
// but results are assembled in candidate order, ties keep the first reference
// seen, suppression sorts by a total order on the boxes, and ordering is a
// stable sort.
//
// # Testing
//
// Tests use testify's require for preconditions and assert for checks.
// Packages written for matching use testify; the image-processing packages
// keep plain testing.
package matching
