// Package model defines the data types shared across the trade reader.
//
// Conventions:
//   - Prices and quantities: exact decimal strings as sent by the venue,
//     never coerced to binary floats
//   - Timestamps: fixed-format UTC strings with microsecond precision
//     (see TimeLayout), converted from venue millisecond epochs
//   - IDs: venue-assigned, stored as strings
package model
