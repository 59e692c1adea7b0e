package pebbledb

// Keyspace helpers.
//
// Layout (byte-wise, lexicographically sortable):
// - t/{table}/m                row/batch ceilings and table metadata
// - t/{table}/r/{encoded_key}  one row per logical key

var (
	tablePrefix = []byte("t/")
	metaSuffix  = []byte("/m")
	rowSeg      = []byte("/r/")
)

// keyMeta builds the metadata key for a table.
func keyMeta(table string) []byte {
	k := make([]byte, 0, len(tablePrefix)+len(table)+len(metaSuffix))
	k = append(k, tablePrefix...)
	k = append(k, table...)
	k = append(k, metaSuffix...)
	return k
}

// keyRow builds the storage key for one encoded logical key.
func keyRow(table string, encoded []byte) []byte {
	k := keyRowPrefix(table)
	return append(k, encoded...)
}

// keyRowPrefix builds the scan prefix covering every row of a table.
func keyRowPrefix(table string) []byte {
	k := make([]byte, 0, len(tablePrefix)+len(table)+len(rowSeg)+16)
	k = append(k, tablePrefix...)
	k = append(k, table...)
	k = append(k, rowSeg...)
	return k
}
