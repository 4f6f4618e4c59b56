package uniclass

import "fmt"

// Table identifies one of the top-level Uniclass classification tables.
type Table uint8

// Tables in their canonical sort order.
const (
	Activities Table = iota
	Complexes
	Entities
	Risk
	SpacesLocations
	ElementsFunctions
	Systems
	Products
	ToolsEquipment
	ProjectManagement
	Materials
	PropertiesCharacteristics
	FormOfInformation
	Roles
	CAD

	numTables
)

// tableInfo keeps the mnemonic and display name for every table. Index by Table.
var tableInfo = [numTables]struct {
	mnemonic string
	name     string
	ident    string
}{
	Activities:                {"Ac", "Activities", "Activities"},
	Complexes:                 {"Co", "Complexes", "Complexes"},
	Entities:                  {"En", "Entities", "Entities"},
	Risk:                      {"RK", "Risk", "Risk"},
	SpacesLocations:           {"SL", "Spaces/locations", "SpacesLocations"},
	ElementsFunctions:         {"EF", "Elements/functions", "ElementsFunctions"},
	Systems:                   {"Ss", "Systems", "Systems"},
	Products:                  {"Pr", "Products", "Products"},
	ToolsEquipment:            {"TE", "Tools and equipment", "ToolsEquipment"},
	ProjectManagement:         {"PM", "Project management", "ProjectManagement"},
	Materials:                 {"Ma", "Materials", "Materials"},
	PropertiesCharacteristics: {"PC", "Properties and characteristics", "PropertiesCharacteristics"},
	FormOfInformation:         {"FI", "Form of information", "FormOfInformation"},
	Roles:                     {"Ro", "Roles", "Roles"},
	CAD:                       {"Zz", "CAD", "CAD"},
}

var tablesByMnemonic = func() map[string]Table {
	m := make(map[string]Table, numTables)
	for t := Table(0); t < numTables; t++ {
		m[tableInfo[t].mnemonic] = t
	}
	return m
}()

// Tables returns every table in sort order.
func Tables() []Table {
	all := make([]Table, numTables)
	for i := range all {
		all[i] = Table(i)
	}
	return all
}

// ParseTable resolves a two-letter mnemonic such as "Ss" or "PM".
func ParseTable(s string) (Table, error) {
	t, ok := tablesByMnemonic[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTable, s)
	}
	return t, nil
}

// Valid reports whether t is a known table.
func (t Table) Valid() bool {
	return t < numTables
}

// String returns the two-letter mnemonic.
func (t Table) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Table(%d)", uint8(t))
	}
	return tableInfo[t].mnemonic
}

// Name returns the human readable table name.
func (t Table) Name() string {
	if !t.Valid() {
		return ""
	}
	return tableInfo[t].name
}

// GoString implements fmt.GoStringer. It returns the qualified constant name,
// for example "uniclass.Systems", which code generators emit directly.
func (t Table) GoString() string {
	if !t.Valid() {
		return fmt.Sprintf("uniclass.Table(%d)", uint8(t))
	}
	return "uniclass." + tableInfo[t].ident
}

// MarshalText implements encoding.TextMarshaler.
func (t Table) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTable, uint8(t))
	}
	return []byte(tableInfo[t].mnemonic), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Table) UnmarshalText(text []byte) error {
	parsed, err := ParseTable(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
