// Package domain models per-date remote-sensing observations at commune/ward
// granularity.
//
// # Data Source
//
// Observations come from GIS exports, one file per acquisition date, each row
// describing one administrative region (commune or ward) with a representative
// point and three vegetation/temperature indices. Files are produced by hand
// from several tools, so column names, delimiters, encodings and number
// formatting all vary between files of the same corpus.
//
// # Indices
//
//	NDVI  Normalized Difference Vegetation Index, nominally -1..1.
//	LST   Land Surface Temperature, usually degrees Celsius.
//	TVDI  Temperature Vegetation Dryness Index, nominally 0..1.
//
// Each index is independently optional. An index that is missing or cannot be
// parsed is stored as nil, never as zero.
//
// # Dates
//
// The acquisition date is encoded in the filename as day, month, 4-digit year
// separated by any single non-digit ("15-03-2023.csv", "NDVI_1_4_2024.csv").
// Files without a usable date fall back to their modification time. Dates
// carry no time of day, see [Date].
//
// # Coordinates
//
// Longitude/latitude are decimal degrees (WGS-84). Some exports have the two
// columns reversed; the normalizer swaps them when the pair falls outside a
// wide regional box, then requires the result to fall inside the target box.
package domain
