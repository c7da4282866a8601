// Package diag carries diagnostics between compilation phases: severities,
// stable numeric codes, the Bag accumulator and the Reporter contract.
package diag
