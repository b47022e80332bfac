// Package options defines the caller-facing PNG optimization options.
//
// Two forms exist:
//
//   - Options is the flat record accepted over the wire. Every field is
//     optional and the option groups (preset, chunk policy, deflate
//     backend) are spread over independent fields.
//   - Request is the tagged form. Each group is a single variant, so a
//     Go caller can only express one choice per group.
//
// Options.Request converts the first into the second using a fixed
// last-field-wins order and reports the fields it discarded.
//
// # Enumerations
//
// Interlace and Filter are closed enumerations. Their UnmarshalJSON
// methods reject unknown values, so an unrecognised filter or interlace
// mode never reaches the resolver from JSON input.
package options
