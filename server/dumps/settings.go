package dumps

// Default number of the requests handled at the same time.
const DefaultConcurrency = 10

// Dump-related settings.
type DumpSettings struct {
	Path         string `long:"dumps-dir" description:"The directory where the dumps are created" env:"MEILI_DUMPS_DIR" default:"dumps/"`
	IndexDBSize  uint64 `long:"max-mdb-size" description:"The maximum size, in bytes, of the index database" env:"MEILI_MAX_MDB_SIZE" default:"107374182400"`
	UpdateDBSize uint64 `long:"max-udb-size" description:"The maximum size, in bytes, of the update database" env:"MEILI_MAX_UDB_SIZE" default:"10737418240"`
	Concurrency  int    `long:"dump-concurrency" description:"The maximum number of the dump requests handled at the same time" env:"MEILI_DUMP_CONCURRENCY" default:"10"`
}

// Returns the number of the request handlers. Non-positive values select
// the default.
func (s *DumpSettings) handlerCount() int {
	if s.Concurrency < 1 {
		return DefaultConcurrency
	}
	return s.Concurrency
}
