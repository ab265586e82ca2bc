package scanner

// MemberRecord is one data member of a reflectable type, in the order its
// data marker appeared in the source.
type MemberRecord struct {
	Parent    string `json:"parent" yaml:"parent" toml:"parent"`
	ValueType string `json:"valueType" yaml:"valueType" toml:"valueType"`
	Name      string `json:"name" yaml:"name" toml:"name"`
	Line      int    `json:"line" yaml:"line" toml:"line"`
}

// TypeRecord is a fully scanned reflectable type. Line is the line of the
// end marker that closed the block.
type TypeRecord struct {
	Name    string         `json:"name" yaml:"name" toml:"name"`
	Line    int            `json:"line" yaml:"line" toml:"line"`
	Members []MemberRecord `json:"members" yaml:"members" toml:"members"`
}
