package meilisearch

// Version of the server and the tools. It is overwritten at build time
// with -ldflags.
var Version = "0.21.0"

// Build date, set at build time.
var BuildDate = "unset"

// Version of the dump layout written by the server. It is stored in the
// dump metadata and bumped on incompatible changes of the archive content.
const DumpDBVersion = "V2"
