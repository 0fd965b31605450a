// Package roi holds the per-device rule model and its write path.
//
// Points arrive as either [x, y] or {"x": .., "y": ..}; PointInput decodes
// both once and everything past the decoder works with Point. Strict
// normalization runs before any write; the Safe accessors tolerate partial
// corruption for read paths.
//
// MergeRules compares each edited rule with the stored rule of the same
// roi_id, ignoring updated_at and created_date, and keeps unchanged rules
// byte for byte, including keys this package does not declare. The stored
// document is then merged at the top level: legacy empty records
// ({"rule": []}, or "initialized": false with no keys besides "rule") are
// replaced, anything else keeps keys the incoming config does not carry.
//
// Service.Save commits the document before it notifies the device, and a
// failed notification becomes SaveResult.Warning.
package roi
