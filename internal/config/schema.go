package config

// Kind is the value type of a schema field.
type Kind int

const (
	KindInt  Kind = iota // integer
	KindLine             // single-line text
	KindBox              // multi-line text
)

// Field describes one configuration entry: its id, human label, value
// kind, an editor dimension hint, and the hardcoded default.
type Field struct {
	ID          string
	Label       string
	Kind        Kind
	Rows, Cols  int
	DefaultInt  int
	DefaultText string
}

// Schema is an ordered, immutable list of field descriptors for one
// configuration purpose.
type Schema struct {
	Name   string
	Fields []Field
	index  map[string]int
}

func newSchema(name string, fields []Field) *Schema {
	s := &Schema{Name: name, Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.ID] = i
	}
	return s
}

// Lookup returns the descriptor for id.
func (s *Schema) Lookup(id string) (Field, bool) {
	i, ok := s.index[id]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

var generalSchema = newSchema("general", []Field{
	{ID: "codefiles", Label: "Expected codefiles:", Kind: KindLine, Cols: 60, DefaultText: "*.RRmd"},
	{ID: "file_format", Label: "File format:", Kind: KindLine, Cols: 30, DefaultText: "%s_%t_%f"},
	{ID: "course_id", Label: "Course id:", Kind: KindLine, Cols: 15},
	{ID: "roster_name_col", Label: "Roster name column:", Kind: KindLine, Cols: 40, DefaultText: "Name"},
	{ID: "roster_firstname_col", Label: "Roster first name column:", Kind: KindLine, Cols: 40, DefaultText: "FirstName"},
	{ID: "roster_lastname_col", Label: "Roster last name column:", Kind: KindLine, Cols: 40, DefaultText: "LastName"},
	{ID: "roster_email_col", Label: "Roster email column:", Kind: KindLine, Cols: 40, DefaultText: "Email"},
	{ID: "filename_name_fmt", Label: "Filename name format:", Kind: KindLine, Cols: 20, DefaultText: "Last, First"},
	{ID: "email_suffix", Label: "Email suffix:", Kind: KindLine, Cols: 30, DefaultText: "@andrew.cmu.edu"},
})

var specificSchema = newSchema("specific", []Field{
	{ID: "aux_files", Label: "Auxiliary files", Kind: KindBox, Rows: 3, Cols: 40},
	{ID: "min_comments", Label: "Min. comments:", Kind: KindInt, DefaultInt: 5},
	{ID: "min_blanks", Label: "Min. blanks:", Kind: KindInt, DefaultInt: 5},
	{ID: "max_warnings", Label: "Max. warnings:", Kind: KindInt},
	{ID: "max_errors", Label: "Max. errors:", Kind: KindInt},
	{ID: "req_code", Label: "Required code:", Kind: KindBox, Rows: 4, Cols: 80},
	{ID: "req_output", Label: "Required output:", Kind: KindBox, Rows: 4, Cols: 80},
	{ID: "prohib_code", Label: "Prohibited code:", Kind: KindBox, Rows: 4, Cols: 80},
	{ID: "prohib_output", Label: "Prohibited output:", Kind: KindBox, Rows: 4, Cols: 80},
	{ID: "dropped_messages", Label: "Dropped messages:", Kind: KindBox, Rows: 2, Cols: 80},
	{ID: "pdf_output", Label: "Attempt pdf output (y/n):", Kind: KindLine, Cols: 1, DefaultText: "y"},
	{ID: "total_points", Label: "Total points:", Kind: KindInt, DefaultInt: 100},
	{ID: "code_prepend", Label: "Code to prepend:", Kind: KindBox, Rows: 3, Cols: 50},
	{ID: "code_append", Label: "Code to append:", Kind: KindBox, Rows: 3, Cols: 50},
})

// GeneralSchema describes the assignment-level configuration.
func GeneralSchema() *Schema { return generalSchema }

// SpecificSchema describes the per-codefile configuration.
func SpecificSchema() *Schema { return specificSchema }
