// Package source opens the inputs the extractors consume.
//
//   - OpenDump / NewDump: the XML dump, decompressing gzip and zstd
//     (klauspost/compress) or bzip2 after sniffing the content with mimetype
//   - DiscoverListings: the per-venue-per-year HTML listing files under a
//     cache directory, found with fastwalk and matched with doublestar
//
// Downloading and checksum verification happen elsewhere; this package only
// reads what is already on disk.
package source
