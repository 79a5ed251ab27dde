// Package export turns rated raw files into finished JPEGs: full
// demosaic through the developer, rotation per the resolved
// orientation, then a quality-95 encode into the destination
// directory. A single bad file never aborts the run; every candidate
// settles into the job report as succeeded or failed.
//
// Encoding goes through libvips when available, with a pure-Go
// fallback. One job runs at a time.
package export
