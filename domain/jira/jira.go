package jira

import (
	"time"

	"jira-stats/domain/table"
)

// Derived columns appended to the report table.
const (
	FirstResponseDaysField = "first_response_latency_days"
	ResolutionDaysField    = "resolution_latency_days"
)

// Field names a logical column of the report, independent of its header text.
type Field string

const (
	FieldKey           Field = "key"
	FieldSummary       Field = "summary"
	FieldDescription   Field = "description"
	FieldItemType      Field = "item_type"
	FieldStatus        Field = "status"
	FieldAssignee      Field = "assignee"
	FieldParent        Field = "parent"
	FieldPriority      Field = "priority"
	FieldVersion       Field = "version"
	FieldCreated       Field = "created"
	FieldResolved      Field = "resolved"
	FieldFirstResponse Field = "first_response"
	FieldPreDate       Field = "pre_date"
	FieldProdDate      Field = "prod_date"
)

// Fields maps logical fields onto the header texts of the export.
type Fields struct {
	Key           string `yaml:"key"`
	Summary       string `yaml:"summary"`
	Description   string `yaml:"description"`
	ItemType      string `yaml:"item_type"`
	Status        string `yaml:"status"`
	Assignee      string `yaml:"assignee"`
	Parent        string `yaml:"parent"`
	Priority      string `yaml:"priority"`
	Version       string `yaml:"version"`
	Created       string `yaml:"created"`
	Resolved      string `yaml:"resolved"`
	FirstResponse string `yaml:"first_response"`
	PreDate       string `yaml:"pre_date"`
	ProdDate      string `yaml:"prod_date"`
}

// DefaultFields are the headers of a Portuguese-language export joined with the backlog sheet.
func DefaultFields() Fields {
	return Fields{
		Key:           "Chave",
		Summary:       "Resumo",
		Description:   "Descrição",
		ItemType:      "Tipo de item",
		Status:        "Status",
		Assignee:      "Responsável",
		Parent:        "Pai",
		Priority:      "Prioridade",
		Version:       "Versão",
		Created:       "Criado",
		Resolved:      "Resolvido",
		FirstResponse: "[CHART] Date of First Response",
		PreDate:       "Data Pré",
		ProdDate:      "Data Produção",
	}
}

// Column returns the header mapped to f.
func (fs Fields) Column(f Field) string {
	switch f {
	case FieldKey:
		return fs.Key
	case FieldSummary:
		return fs.Summary
	case FieldDescription:
		return fs.Description
	case FieldItemType:
		return fs.ItemType
	case FieldStatus:
		return fs.Status
	case FieldAssignee:
		return fs.Assignee
	case FieldParent:
		return fs.Parent
	case FieldPriority:
		return fs.Priority
	case FieldVersion:
		return fs.Version
	case FieldCreated:
		return fs.Created
	case FieldResolved:
		return fs.Resolved
	case FieldFirstResponse:
		return fs.FirstResponse
	case FieldPreDate:
		return fs.PreDate
	case FieldProdDate:
		return fs.ProdDate
	}
	return ""
}

// AllFields lists every logical field in display order.
var AllFields = []Field{
	FieldKey, FieldSummary, FieldDescription, FieldItemType, FieldStatus, FieldAssignee,
	FieldParent, FieldPriority, FieldVersion, FieldCreated, FieldResolved, FieldFirstResponse,
	FieldPreDate, FieldProdDate,
}

// Merge fills blank entries of fs from defaults.
func (fs Fields) Merge(defaults Fields) Fields {
	pick := func(a, b string) string {
		if a == "" {
			return b
		}
		return a
	}
	return Fields{
		Key:           pick(fs.Key, defaults.Key),
		Summary:       pick(fs.Summary, defaults.Summary),
		Description:   pick(fs.Description, defaults.Description),
		ItemType:      pick(fs.ItemType, defaults.ItemType),
		Status:        pick(fs.Status, defaults.Status),
		Assignee:      pick(fs.Assignee, defaults.Assignee),
		Parent:        pick(fs.Parent, defaults.Parent),
		Priority:      pick(fs.Priority, defaults.Priority),
		Version:       pick(fs.Version, defaults.Version),
		Created:       pick(fs.Created, defaults.Created),
		Resolved:      pick(fs.Resolved, defaults.Resolved),
		FirstResponse: pick(fs.FirstResponse, defaults.FirstResponse),
		PreDate:       pick(fs.PreDate, defaults.PreDate),
		ProdDate:      pick(fs.ProdDate, defaults.ProdDate),
	}
}

// Issue is the typed view of one report row after derivation and join.
type Issue struct {
	Key         string `json:"key"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	ItemType    string `json:"item_type"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee"`
	Parent      string `json:"parent"`
	Priority    string `json:"priority"`
	Version     string `json:"version,omitempty"`

	Created       *time.Time `json:"created,omitempty"`
	Resolved      *time.Time `json:"resolved,omitempty"`
	FirstResponse *time.Time `json:"first_response,omitempty"`
	PreDate       *time.Time `json:"pre_date,omitempty"`
	ProdDate      *time.Time `json:"prod_date,omitempty"`

	FirstResponseDays int `json:"first_response_latency_days"`
	ResolutionDays    int `json:"resolution_latency_days"`

	// Month is the YYYY-MM creation month, empty without a creation date.
	Month string `json:"month,omitempty"`

	Record table.Record `json:"-"`
}

// Warning is a non-fatal condition reported alongside results.
type Warning struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

const (
	WarnMissingField         = "missing_field"
	WarnChartSkipped         = "chart_skipped"
	WarnJoinSkipped          = "join_skipped"
	WarnSecondaryUnavailable = "secondary_unavailable"
	WarnRowsDropped          = "rows_dropped"
	WarnColumnsMissing       = "columns_missing"
)
