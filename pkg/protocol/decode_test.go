package protocol

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgraph/pkg/source"
)

var testKinds = Kinds{
	KindClass:    func() Element { return &Class{} },
	KindProfile:  func() Element { return &Profile{} },
	KindDatabase: func() Element { return &Database{} },
}

const sampleYAML = `
elements:
  - _type: profile
    package: example
    name: Doc
    tags:
      - value: doc
    sourceInformation: {sourceId: m.pure, startLine: 1, startColumn: 1, endLine: 3, endColumn: 1}
  - _type: class
    package: example
    name: Person
    taggedValues:
      - tag:
          profile: example::Doc
          value: doc
          profileSourceInformation: {startLine: 5, startColumn: 3, endLine: 5, endColumn: 13}
        value: a person
    properties:
      - name: nicknames
        genericType:
          rawType: {fullPath: String}
        multiplicity: {lowerBound: 0}
      - name: name
        genericType:
          rawType: {fullPath: String}
        multiplicity: {lowerBound: 1, upperBound: 1}
`

func TestDecode(t *testing.T) {
	els, err := Decode(strings.NewReader(sampleYAML), testKinds)
	require.NoError(t, err)
	require.Len(t, els, 2)

	p, ok := els[0].(*Profile)
	require.True(t, ok, "first element should be a profile")
	assert.Equal(t, "example::Doc", p.Path())
	assert.Equal(t, KindProfile, p.Kind())
	require.NotNil(t, p.Location())
	assert.Equal(t, source.New("m.pure", 1, 1, 3, 1), *p.Location())

	c, ok := els[1].(*Class)
	require.True(t, ok, "second element should be a class")
	require.Len(t, c.TaggedValues, 1)
	assert.Equal(t, "example::Doc", c.TaggedValues[0].Tag.Profile)
	assert.Equal(t, 5, c.TaggedValues[0].Tag.ProfileSourceInformation.StartLine)
	require.Len(t, c.Properties, 2)
	assert.Nil(t, c.Properties[0].Multiplicity.UpperBound, "absent upper bound is unbounded")
	require.NotNil(t, c.Properties[1].Multiplicity.UpperBound)
	assert.Equal(t, 1, *c.Properties[1].Multiplicity.UpperBound)
	assert.Nil(t, c.Location())
}

func TestDecode_JSON(t *testing.T) {
	doc := `{"elements": [{"_type": "database", "package": "store", "name": "DB", ` +
		`"schemas": [{"name": "default", "tables": [{"name": "person", "columns": [{"name": "id", "type": "INTEGER", "nullable": false}]}]}]}]}`

	els, err := Decode(strings.NewReader(doc), testKinds)
	require.NoError(t, err)
	require.Len(t, els, 1)

	db, ok := els[0].(*Database)
	require.True(t, ok)
	require.Len(t, db.Schemas, 1)
	col := db.Schemas[0].Tables[0].Columns[0]
	assert.Equal(t, "INTEGER", col.Type)
	require.NotNil(t, col.Nullable)
	assert.False(t, *col.Nullable)
}

func TestDecode_MultipleDocuments(t *testing.T) {
	doc := "elements:\n  - {_type: class, name: A}\n---\nelements:\n  - {_type: class, name: B}\n"
	els, err := Decode(strings.NewReader(doc), testKinds)
	require.NoError(t, err)
	require.Len(t, els, 2)
	assert.Equal(t, "B", els[1].Path())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		errSubstr string
	}{
		{"unknown kind", "elements:\n  - {_type: service, name: S}\n", `unknown element type "service"`},
		{"missing type", "elements:\n  - {name: S}\n", "missing _type"},
		{"bad yaml", "elements: [\n", "failed to parse document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), testKinds)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	els, err := Decode(strings.NewReader(""), testKinds)
	require.NoError(t, err)
	assert.Empty(t, els)
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	els, err := DecodeFile(path, testKinds)
	require.NoError(t, err)
	assert.Len(t, els, 2)

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.yaml"), testKinds)
	assert.Error(t, err)
}

func TestPackageable_Path(t *testing.T) {
	assert.Equal(t, "a::b::C", Packageable{Package: "a::b", Name: "C"}.Path())
	assert.Equal(t, "C", Packageable{Name: "C"}.Path())
}
