package excel

// RawRowData represents a row of a sheet as header -> trimmed cell value
type RawRowData map[string]string

// SheetData represents one sheet read as a table
type SheetData struct {
	Name    string       // Sheet name
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
	Lines   []int        // 1-based sheet row of each data row
}

// Column headers of the Categories sheet
const (
	ColID          = "id"
	ColDisplayName = "display_name"
	ColParentID    = "parent_id"
	ColDepth       = "depth"
	ColKeywords    = "keywords"
	ColWeight      = "weight"
)

// Column headers of the Signals sheet; every other column is a sample
const (
	ColKeyword = "keyword"
	ColSide    = "side"
)

// Column headers of the Pairs sheet
const (
	ColRow     = "row"
	ColCol     = "col"
	ColIntent  = "intent"
	ColReality = "reality"
)

// Values of the side column
const (
	SideIntent  = "intent"
	SideReality = "reality"
)
