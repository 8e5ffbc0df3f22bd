// Package limits provides centralized size bounds and validation functions
// for the mediacore lifecycle types. This package ensures consistent size
// enforcement across all construction boundaries of the library.
//
// # Size Hierarchy
//
// The package defines bounds for the three variable-size regions the
// library allocates on behalf of callers and backends:
//
//   - MaxVideoContextPrivate (64KB): The largest private payload a backend
//     may attach to a video context. Backend-private state is a small
//     fixed struct per stream; anything larger indicates a caller bug or
//     corrupted size computation.
//
//   - MaxPictureDimension (16384 pixels): The largest width or height of
//     an allocated picture. This matches the coded-size ceiling of modern
//     codec levels and prevents a hostile format descriptor from forcing
//     gigabyte plane allocations.
//
//   - MaxFormatExtra (1MB): The largest codec extradata blob a format
//     descriptor will deep-copy. Real extradata (parameter sets, codec
//     headers) is a few kilobytes; the limit prevents memory exhaustion
//     from untrusted containers.
//
// # Validation Functions
//
// Each validation function returns a wrapped sentinel with the actual and
// maximum values in the message:
//
//	err := limits.ValidatePrivateSize(size)
//	if err != nil {
//	    // errors.Is(err, limits.ErrSizeTooLarge) or limits.ErrSizeNegative
//	}
//
// # Error Types
//
//   - ErrSizeNegative: a negative byte count was provided
//   - ErrSizeTooLarge: a byte count exceeds its limit
//   - ErrDimensionInvalid: a picture dimension is zero or negative
//   - ErrDimensionTooLarge: a picture dimension exceeds MaxPictureDimension
//
// # Security Considerations
//
// All three bounds defend allocation sites that are reachable with
// attacker-influenced sizes (container metadata, negotiated formats).
// Validation happens once, at the construction boundary, so code past
// that point may trust the stored sizes.
package limits
