// Package identity reconciles vehicle identifiers across data sources that
// encode the same physical vehicle differently (plate formats, padding,
// partial IDs).
package identity
