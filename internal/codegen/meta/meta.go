package meta

import "github.com/vxlib/vxrefl/internal/codegen/scanner"

// Metadata is the record set of one run: the TypeRecords of every scanned
// file that produced at least one record.
// Shared between the generator orchestrator and the emitters.
type Metadata struct {
	Root  string
	Paths []string                         // files with records, in scan order
	Files map[string][]scanner.TypeRecord // source path -> records in end-marker order
	// Unannotated lists files that scanned cleanly without any record.
	Unannotated []string
}

func New(root string) *Metadata {
	return &Metadata{
		Root:  root,
		Files: make(map[string][]scanner.TypeRecord),
	}
}

// Add stores the records of path. A file's records are added once, after its
// whole text was scanned; a file without records is only listed in
// Unannotated.
func (md *Metadata) Add(path string, records []scanner.TypeRecord) {
	if len(records) == 0 {
		md.Unannotated = append(md.Unannotated, path)
		return
	}
	if _, ok := md.Files[path]; !ok {
		md.Paths = append(md.Paths, path)
	}
	md.Files[path] = append(md.Files[path], records...)
}

// TypeCount returns the number of records across all files.
func (md *Metadata) TypeCount() int {
	n := 0
	for _, records := range md.Files {
		n += len(records)
	}
	return n
}
