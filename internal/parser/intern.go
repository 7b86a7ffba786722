package parser

// maxNamePoolSize caps the pool so that a table of unique values stops
// growing it. Values past the cap are returned as-is.
const maxNamePoolSize = 1 << 16

// nameTable canonicalizes repeated cell values such as station names and
// style tags, so that every trip naming a station shares one string.
// Each ingestion owns its own table.
type nameTable struct {
	pool map[string]string
}

func newNameTable() *nameTable {
	return &nameTable{pool: make(map[string]string, 64)}
}

// intern returns the canonical copy of s.
func (nt *nameTable) intern(s string) string {
	if pooled, ok := nt.pool[s]; ok {
		return pooled
	}
	if len(nt.pool) >= maxNamePoolSize {
		return s
	}
	// Clone so the pooled copy does not pin the row it was read from.
	s = string(append([]byte(nil), s...))
	nt.pool[s] = s
	return s
}

func (nt *nameTable) len() int {
	return len(nt.pool)
}
