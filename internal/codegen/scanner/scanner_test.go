package scanner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxlib/vxrefl/internal/log"
)

func scan(t *testing.T, src string) ([]TypeRecord, error) {
	t.Helper()
	s, err := New(DefaultTokens(), nil)
	require.NoError(t, err)
	return s.Scan("test.h", strings.NewReader(src))
}

func scanErrors(err error) []*Error {
	var out []*Error
	if err == nil {
		return out
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			var se *Error
			if errors.As(e, &se) {
				out = append(out, se)
			}
		}
	}
	return out
}

func TestScanSingleBlock(t *testing.T) {
	src := `struct Foo
{
	int x;
	float y;

	static const vx::hash_type s_reflectionId;
};

VX_RF_DATA_BEGIN(Foo)
VX_RF_DATA(Foo, int, x)
VX_RF_DATA(Foo, float, y)
VX_RF_DATA_END(Foo)
`
	records, err := scan(t, src)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Foo", records[0].Name)
	assert.Equal(t, 12, records[0].Line)
	assert.Equal(t, []MemberRecord{
		{Parent: "Foo", ValueType: "int", Name: "x", Line: 10},
		{Parent: "Foo", ValueType: "float", Name: "y", Line: 11},
	}, records[0].Members)
}

func TestScanTwoBlocksKeepMembersApart(t *testing.T) {
	src := `VX_RF_DATA_BEGIN(A)
VX_RF_DATA(A, int, a0)
VX_RF_DATA(A, int, a1)
VX_RF_DATA_END(A)
int unrelated;
VX_RF_DATA_BEGIN(B)
VX_RF_DATA(B, double, b0)
VX_RF_DATA_END(B)
`
	records, err := scan(t, src)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "A", records[0].Name)
	require.Len(t, records[0].Members, 2)
	assert.Equal(t, "a0", records[0].Members[0].Name)
	assert.Equal(t, "a1", records[0].Members[1].Name)

	assert.Equal(t, "B", records[1].Name)
	require.Len(t, records[1].Members, 1)
	assert.Equal(t, "b0", records[1].Members[0].Name)
}

func TestScanPreservesDuplicatesAndOrder(t *testing.T) {
	src := `VX_RF_DATA_BEGIN(Foo)
VX_RF_DATA(Foo, int, z)
VX_RF_DATA(Foo, int, a)
VX_RF_DATA(Foo, int, z)
VX_RF_DATA_END(Foo)
`
	records, err := scan(t, src)
	require.NoError(t, err)
	require.Len(t, records, 1)

	var names []string
	for _, m := range records[0].Members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"z", "a", "z"}, names)
}

func TestScanEmptyBlock(t *testing.T) {
	records, err := scan(t, "VX_RF_DATA_BEGIN(Empty)\nVX_RF_DATA_END(Empty)\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Empty", records[0].Name)
	assert.Empty(t, records[0].Members)
}

func TestScanNoMarkers(t *testing.T) {
	records, err := scan(t, "#pragma once\nstruct Foo { int x; };\n")
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestScanIgnoresDefinitions(t *testing.T) {
	src := `#define VX_RF_DATA_BEGIN(TYPE) \
const auto g_rf_##TYPE \
{ \
::vx::detail::createReflectionData(#TYPE, sizeof(TYPE), __alignof(TYPE), murmurhash(#TYPE)

#define VX_RF_DATA_END(TYPE) ) };

#define VX_RF_DATA(TYPE, VALUETYPE, MEMBER) \
, ReflectionDataMember(#VALUETYPE, #MEMBER, sizeof(VALUETYPE), __alignof(VALUETYPE), offsetof(TYPE, MEMBER), murmurhash(#VALUETYPE))
`
	records, err := scan(t, src)
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestScanCRLF(t *testing.T) {
	records, err := scan(t, "VX_RF_DATA_BEGIN(Foo)\r\nVX_RF_DATA(Foo, int, x)\r\nVX_RF_DATA_END(Foo)\r\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "x", records[0].Members[0].Name)
}

func TestScanDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		kinds   []error
		lines   []int
		records []string
	}{
		{
			name:    "data with two fields",
			src:     "VX_RF_DATA_BEGIN(Foo)\nVX_RF_DATA(Foo, x)\nVX_RF_DATA_END(Foo)\n",
			kinds:   []error{ErrMalformedRecord},
			lines:   []int{2},
			records: []string{"Foo"},
		},
		{
			name:    "data with empty field",
			src:     "VX_RF_DATA_BEGIN(Foo)\nVX_RF_DATA(Foo, , x)\nVX_RF_DATA_END(Foo)\n",
			kinds:   []error{ErrMalformedRecord},
			lines:   []int{2},
			records: []string{"Foo"},
		},
		{
			name:    "data without closing parenthesis",
			src:     "VX_RF_DATA_BEGIN(Foo)\nVX_RF_DATA(Foo, int, x\nVX_RF_DATA_END(Foo)\n",
			kinds:   []error{ErrMalformedRecord},
			lines:   []int{2},
			records: []string{"Foo"},
		},
		{
			name:  "empty begin",
			src:   "VX_RF_DATA_BEGIN()\n",
			kinds: []error{ErrMalformedRecord},
			lines: []int{1},
		},
		{
			name:  "end without begin",
			src:   "VX_RF_DATA_END(Foo)\n",
			kinds: []error{ErrDanglingEnd},
			lines: []int{1},
		},
		{
			name:    "end after closed block",
			src:     "VX_RF_DATA_BEGIN(Foo)\nVX_RF_DATA(Foo, int, x)\nVX_RF_DATA_END(Foo)\nVX_RF_DATA_END(Foo)\n",
			kinds:   []error{ErrDanglingEnd},
			lines:   []int{4},
			records: []string{"Foo"},
		},
		{
			name:  "begin without end",
			src:   "VX_RF_DATA_BEGIN(Foo)\nVX_RF_DATA(Foo, int, x)\n",
			kinds: []error{ErrUnterminatedBlock},
			lines: []int{1},
		},
		{
			name:    "nested begin drops outer block",
			src:     "VX_RF_DATA_BEGIN(A)\nVX_RF_DATA(A, int, x)\nVX_RF_DATA_BEGIN(B)\nVX_RF_DATA_END(B)\n",
			kinds:   []error{ErrUnterminatedBlock},
			lines:   []int{1},
			records: []string{"B"},
		},
		{
			name:  "data outside block",
			src:   "VX_RF_DATA(Foo, int, x)\n",
			kinds: []error{ErrStrayMember},
			lines: []int{1},
		},
		{
			name:    "member of another type",
			src:     "VX_RF_DATA_BEGIN(A)\nVX_RF_DATA(B, int, x)\nVX_RF_DATA_END(A)\n",
			kinds:   []error{ErrParentMismatch},
			lines:   []int{2},
			records: []string{"A"},
		},
		{
			name:  "end names another type",
			src:   "VX_RF_DATA_BEGIN(A)\nVX_RF_DATA_END(B)\n",
			kinds: []error{ErrParentMismatch},
			lines: []int{2},
		},
		{
			name:  "all problems are reported",
			src:   "VX_RF_DATA(Foo, int, x)\nVX_RF_DATA_END(Foo)\nVX_RF_DATA_BEGIN(Bar)\nVX_RF_DATA(Bar, int)\n",
			kinds: []error{ErrStrayMember, ErrDanglingEnd, ErrMalformedRecord, ErrUnterminatedBlock},
			lines: []int{1, 2, 4, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := scan(t, tt.src)
			require.Error(t, err)

			diags := scanErrors(err)
			require.Len(t, diags, len(tt.kinds))
			for i, d := range diags {
				assert.ErrorIs(t, d, tt.kinds[i])
				assert.Equal(t, tt.lines[i], d.Line)
				assert.Equal(t, "test.h", d.Path)
			}

			var names []string
			for _, r := range records {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.records, names)
		})
	}
}

func TestScanErrorMessage(t *testing.T) {
	_, err := scan(t, "VX_RF_DATA_END(Foo)\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test.h:1: dangling end marker")
	assert.True(t, errors.Is(err, ErrDanglingEnd))
}

func TestScanRawTrace(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(DefaultTokens(), log.NewRaw(&buf))
	require.NoError(t, err)

	_, err = s.Scan("a.h", strings.NewReader("int x;\nVX_RF_DATA_BEGIN(Foo)\nVX_RF_DATA_END(Foo)\n"))
	require.NoError(t, err)

	assert.Equal(t, "a.h:2 begin | VX_RF_DATA_BEGIN(Foo)\na.h:3 end   | VX_RF_DATA_END(Foo)\n", buf.String())
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Foo.h")
	require.NoError(t, os.WriteFile(path, []byte("VX_RF_DATA_BEGIN(Foo)\nVX_RF_DATA(Foo, int, x)\nVX_RF_DATA_END(Foo)\n"), 0o644))

	s, err := New(DefaultTokens(), nil)
	require.NoError(t, err)

	records, err := s.ScanFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = s.ScanFile(filepath.Join(dir, "missing.h"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
