package excel

// SourceConfig holds configuration for a workbook signal source
type SourceConfig struct {
	FilePath         string `json:"file_path"`
	Project          string `json:"project"`
	CategoriesSheet  string `json:"categories_sheet"`
	SignalsSheet     string `json:"signals_sheet"`
	PairsSheet       string `json:"pairs_sheet"`
	KeywordSeparator string `json:"keyword_separator"`
}

// DefaultSourceConfig returns the sheet layout the writer produces
func DefaultSourceConfig(path string) SourceConfig {
	return SourceConfig{
		FilePath:         path,
		CategoriesSheet:  "Categories",
		SignalsSheet:     "Signals",
		PairsSheet:       "Pairs",
		KeywordSeparator: ";",
	}
}
