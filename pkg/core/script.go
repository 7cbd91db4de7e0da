package core

// ScriptKind identifies the kind of object a script creates.
type ScriptKind string

// Script kinds.
const (
	KindProcedure ScriptKind = "PROCEDURE"
	KindFunction  ScriptKind = "FUNCTION"
	KindView      ScriptKind = "VIEW"
	KindTrigger   ScriptKind = "TRIGGER"
)

// Script is the analysed form of one create statement.
type Script interface {
	// ScriptKind reports the object kind.
	ScriptKind() ScriptKind
	// Common returns the header and body shared by every script kind.
	Common() *CommonScript
	scriptNode()
}

// CommonScript carries the fields every script has.
type CommonScript struct {
	Name       *Token       `json:"name" yaml:"name"`
	Owner      *Token       `json:"owner,omitempty" yaml:"owner,omitempty"`
	Parameters []*Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Statements []Statement  `json:"statements" yaml:"statements"`
	Warnings   []Warning    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Common implements Script.
func (c *CommonScript) Common() *CommonScript { return c }

// FullName returns owner.name, or name when there is no owner.
func (c *CommonScript) FullName() string {
	if c.Name == nil {
		return ""
	}
	if c.Owner != nil && c.Owner.Symbol != "" {
		return c.Owner.Symbol + "." + c.Name.Symbol
	}
	return c.Name.Symbol
}

// ParameterDirection is the passing mode of a routine parameter.
type ParameterDirection string

// Parameter directions.
const (
	DirectionNone  ParameterDirection = "NONE"
	DirectionIn    ParameterDirection = "IN"
	DirectionOut   ParameterDirection = "OUT"
	DirectionInOut ParameterDirection = "INOUT"
)

// Parameter is a routine parameter in declaration order.
type Parameter struct {
	Name         *Token             `json:"name" yaml:"name"`
	DataType     *Token             `json:"data_type" yaml:"data_type"`
	Direction    ParameterDirection `json:"direction" yaml:"direction"`
	DefaultValue *Token             `json:"default,omitempty" yaml:"default,omitempty"`
}

// RoutineScript is a stored procedure or function.
// For functions exactly one of ReturnDataType, ReturnTable and
// InlineTable describes the result.
type RoutineScript struct {
	CommonScript   `yaml:",inline"`
	Kind           ScriptKind      `json:"kind" yaml:"kind"`
	ReturnDataType *Token          `json:"return_data_type,omitempty" yaml:"return_data_type,omitempty"`
	ReturnTable    *TemporaryTable `json:"return_table,omitempty" yaml:"return_table,omitempty"`
	InlineTable    bool            `json:"inline_table,omitempty" yaml:"inline_table,omitempty"` // RETURNS TABLE AS RETURN (select)
}

// ScriptKind implements Script.
func (r *RoutineScript) ScriptKind() ScriptKind { return r.Kind }

func (*RoutineScript) scriptNode() {}

// ViewScript is a view. Its body is a single SelectStatement.
type ViewScript struct {
	CommonScript `yaml:",inline"`
	Columns      []*ColumnName `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// ScriptKind implements Script.
func (*ViewScript) ScriptKind() ScriptKind { return KindView }

func (*ViewScript) scriptNode() {}

// TriggerEvent is a DML operation that fires a trigger.
type TriggerEvent string

// Trigger events.
const (
	EventInsert TriggerEvent = "INSERT"
	EventUpdate TriggerEvent = "UPDATE"
	EventDelete TriggerEvent = "DELETE"
)

// TriggerTime is when a trigger fires relative to its event.
type TriggerTime string

// Trigger times.
const (
	TimeBefore    TriggerTime = "BEFORE"
	TimeAfter     TriggerTime = "AFTER"
	TimeInsteadOf TriggerTime = "INSTEAD_OF"
)

// TriggerScript is a DML trigger.
type TriggerScript struct {
	CommonScript `yaml:",inline"`
	TableName    *TableName     `json:"table_name" yaml:"table_name"`
	Events       []TriggerEvent `json:"events" yaml:"events"`
	Time         TriggerTime    `json:"time" yaml:"time"`
}

// ScriptKind implements Script.
func (*TriggerScript) ScriptKind() ScriptKind { return KindTrigger }

func (*TriggerScript) scriptNode() {}

// AddEvent appends e unless it is already present.
func (t *TriggerScript) AddEvent(e TriggerEvent) {
	for _, have := range t.Events {
		if have == e {
			return
		}
	}
	t.Events = append(t.Events, e)
}
