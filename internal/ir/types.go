package ir

import "fmt"

// SemanticType is the logical type of a board column, independent of where
// its values are stored.
type SemanticType string

const (
	TypeText        SemanticType = "text"
	TypeLongText    SemanticType = "long_text"
	TypeEmail       SemanticType = "email"
	TypeURL         SemanticType = "url"
	TypeNumber      SemanticType = "number"
	TypeDate        SemanticType = "date"
	TypeDateTime    SemanticType = "datetime"
	TypeBoolean     SemanticType = "boolean"
	TypeCheckbox    SemanticType = "checkbox"
	TypeSelect      SemanticType = "select"
	TypeMultiSelect SemanticType = "multiselect"
	TypeStatus      SemanticType = "status"
	TypePriority    SemanticType = "priority"
	TypeLabels      SemanticType = "labels"
	TypeUser        SemanticType = "user"
	TypeAssignee    SemanticType = "assignee"
)

// SemanticTypes lists every known semantic type in declaration order.
var SemanticTypes = []SemanticType{
	TypeText, TypeLongText, TypeEmail, TypeURL,
	TypeNumber,
	TypeDate, TypeDateTime,
	TypeBoolean, TypeCheckbox,
	TypeSelect, TypeMultiSelect,
	TypeStatus, TypePriority,
	TypeLabels,
	TypeUser, TypeAssignee,
}

// Kind is the closed set of filter families. Every SemanticType maps onto
// exactly one Kind.
type Kind int

const (
	KindText Kind = iota + 1
	KindNumber
	KindDate
	KindBoolean
	KindSelect
	KindStatus
	KindPriority
	KindLabels
	KindAssignee
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindNumber:   "number",
	KindDate:     "date",
	KindBoolean:  "boolean",
	KindSelect:   "select",
	KindStatus:   "status",
	KindPriority: "priority",
	KindLabels:   "labels",
	KindAssignee: "assignee",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindOf returns the filter family for a semantic type.
// The second result is false for unknown types.
func KindOf(t SemanticType) (Kind, bool) {
	switch t {
	case TypeText, TypeLongText, TypeEmail, TypeURL:
		return KindText, true
	case TypeNumber:
		return KindNumber, true
	case TypeDate, TypeDateTime:
		return KindDate, true
	case TypeBoolean, TypeCheckbox:
		return KindBoolean, true
	case TypeSelect, TypeMultiSelect:
		return KindSelect, true
	case TypeStatus:
		return KindStatus, true
	case TypePriority:
		return KindPriority, true
	case TypeLabels:
		return KindLabels, true
	case TypeUser, TypeAssignee:
		return KindAssignee, true
	default:
		return 0, false
	}
}

// StorageMode says whether a column's values live in a fixed column on the
// tasks table or in the field_values EAV table.
type StorageMode string

const (
	StorageNative StorageMode = "native"
	StorageEAV    StorageMode = "eav"
)

// Column describes one attribute a task can carry.
// Columns are immutable during filter evaluation.
type Column struct {
	ID       int64         `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	Type     SemanticType  `json:"type" yaml:"type"`
	Storage  StorageMode   `json:"storage" yaml:"storage"`
	Field    string        `json:"field,omitempty" yaml:"field,omitempty"` // native column name; empty for EAV
	Required bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Options  ColumnOptions `json:"options,omitempty" yaml:"options,omitempty"`
}

// ColumnOptions holds type-specific configuration.
type ColumnOptions struct {
	// Choices is the allowed option list for select/multiselect columns.
	// Empty means any string or number is accepted.
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// IsEAV reports whether the column is stored in the EAV table.
func (c Column) IsEAV() bool {
	return c.Storage == StorageEAV
}

// Triple is the (column, operator, value) unit of a filter request.
// Not persisted; constructed per request by the caller.
type Triple struct {
	Column   string `json:"column_reference" yaml:"column_reference"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// FieldValue is one EAV row: the value of one column for one task.
// Stored as {"value": <json>} in field_values.value.
type FieldValue struct {
	TaskID   int64 `json:"task_id"`
	ColumnID int64 `json:"column_id"`
	Value    Value `json:"value"`
}
