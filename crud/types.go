package crud

import "github.com/syssam/saint/admin"

// Response statuses.
const (
	StatusError = 0
	StatusOK    = 1
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status int      `json:"status"`
	Errors []string `json:"errors"`
}

// ColumnData describes a column of a summary or edit page.
type ColumnData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// SummaryRow is a row of the summary page. Values follow the order of
// the summary columns.
type SummaryRow struct {
	ID     any    `json:"id"`
	Header string `json:"header"`
	Values []any  `json:"values"`
}

// FilterData describes a filter offered on the summary page.
type FilterData struct {
	Column  string             `json:"column"`
	Param   string             `json:"param"`
	Label   string             `json:"label"`
	Type    string             `json:"type"`
	Logic   string             `json:"logic"`
	Range   bool               `json:"range"`
	Options []admin.OptionItem `json:"options,omitempty"`
	Value   string             `json:"value,omitempty"`
	From    string             `json:"from,omitempty"`
	To      string             `json:"to,omitempty"`
}

// Capabilities lists the operations allowed by a controller.
type Capabilities struct {
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// SummaryResponse is the body of the summary page.
type SummaryResponse struct {
	Status  int          `json:"status"`
	Label   string       `json:"label"`
	Columns []ColumnData `json:"columns"`
	Rows    []SummaryRow `json:"rows"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	Pages   int          `json:"pages"`
	PerPage int          `json:"per_page"`
	Subset  string       `json:"subset,omitempty"`
	Subsets []string     `json:"subsets,omitempty"`
	Filters []FilterData `json:"filters,omitempty"`
	Can     Capabilities `json:"can"`
}

// Element is a column of an edit page with its value.
type Element struct {
	ColumnData
	Value       any                `json:"value"`
	Required    bool               `json:"required,omitempty"`
	Multiple    bool               `json:"multiple,omitempty"`
	Options     []admin.OptionItem `json:"options,omitempty"`
	Layout      string             `json:"layout,omitempty"`
	Style       string             `json:"style,omitempty"`
	Class       string             `json:"class,omitempty"`
	LayoutStyle string             `json:"layout_style,omitempty"`
	LayoutClass string             `json:"layout_class,omitempty"`
}

// GridData is a grid of an edit page. Elements lists the names of the
// columns shown inside it.
type GridData struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Columns  int      `json:"columns"`
	Header   string   `json:"header,omitempty"`
	Footer   string   `json:"footer,omitempty"`
	Elements []string `json:"elements"`
}

// AssocData describes an association listed on an edit page.
type AssocData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	Readonly bool   `json:"readonly,omitempty"`
	URL      string `json:"url,omitempty"`
	Create   bool   `json:"create,omitempty"`
}

// EditResponse is the body of the edit and new pages.
type EditResponse struct {
	Status   int          `json:"status"`
	ID       any          `json:"id,omitempty"`
	Header   string       `json:"header"`
	Label    string       `json:"label"`
	Elements []Element    `json:"elements"`
	Grids    []GridData   `json:"grids,omitempty"`
	Assocs   []AssocData  `json:"assocs,omitempty"`
	Can      Capabilities `json:"can"`
}

// SaveResponse is the body of a successful create or update.
type SaveResponse struct {
	Status int `json:"status"`
	ID     any `json:"id"`
}

// DeleteResponse is the body of a successful delete.
type DeleteResponse struct {
	Status  int `json:"status"`
	Deleted int `json:"deleted"`
}

// RemoteRow is a remote row of an association page.
type RemoteRow struct {
	ID       any            `json:"id"`
	Header   string         `json:"header"`
	Attached bool           `json:"attached"`
	Values   map[string]any `json:"values,omitempty"`
}

// AssocResponse is the body of an association page.
type AssocResponse struct {
	Status  int          `json:"status"`
	Assoc   AssocData    `json:"assoc"`
	Columns []ColumnData `json:"columns,omitempty"`
	Rows    []RemoteRow  `json:"rows"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	Pages   int          `json:"pages"`
}
