// Package vnadata provides the common data container exchanged between
// the calibration core and its collaborators (measurement acquisition
// and the save/load layers): a (frequency × rows × columns) array of
// complex cells plus per-port reference impedances.
//
// Reference impedances live in exactly one of two modes:
//   - a single global vector shared by all frequencies (the default,
//     50Ω on every port), or
//   - one vector per frequency.
//
// The modes are mutually exclusive; ConvertToPerFrequencyZ0 and
// ConvertToGlobalZ0 switch between them explicitly.
//
// ⚠ Resize semantics: growing or shrinking the frequency or row count
// preserves cells whose indices remain meaningful and zero-fills new
// ones. Changing the COLUMN count does not reindex existing data — cells
// keep their flat offset within each per-frequency block, so a value at
// (r, c) generally moves to a different (r', c') under the new width.
// Callers that change the column count must rewrite their data.
package vnadata
