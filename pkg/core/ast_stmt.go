package core

// ---------- DML ----------

// SelectStatement is a query with its clauses captured verbatim.
type SelectStatement struct {
	Distinct        bool              `json:"distinct,omitempty" yaml:"distinct,omitempty"`
	TopInfo         *TopInfo          `json:"top,omitempty" yaml:"top,omitempty"`
	Columns         []*ColumnName     `json:"columns" yaml:"columns"`
	IntoTableName   *TableName        `json:"into,omitempty" yaml:"into,omitempty"`
	TableName       *TableName        `json:"table_name,omitempty" yaml:"table_name,omitempty"` // first FROM source
	FromItems       []*FromItem       `json:"from,omitempty" yaml:"from,omitempty"`
	Condition       *Token            `json:"where,omitempty" yaml:"where,omitempty"`
	GroupBy         []*Token          `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	Having          *Token            `json:"having,omitempty" yaml:"having,omitempty"`
	OrderBy         []*Token          `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	LimitInfo       *LimitInfo        `json:"limit,omitempty" yaml:"limit,omitempty"`
	Option          *Token            `json:"option,omitempty" yaml:"option,omitempty"`
	WithStatements  []*WithStatement  `json:"with,omitempty" yaml:"with,omitempty"`
	UnionStatements []*UnionStatement `json:"unions,omitempty" yaml:"unions,omitempty"`
}

func (*SelectStatement) stmtNode() {}

// TopInfo is a TOP n [PERCENT] clause.
type TopInfo struct {
	TopCount  *Token `json:"count" yaml:"count"`
	IsPercent bool   `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// LimitInfo is a row window taken from OFFSET ... FETCH NEXT.
// RowCount is nil when the FETCH part is absent.
type LimitInfo struct {
	StartRowIndex *Token `json:"start" yaml:"start"`
	RowCount      *Token `json:"count,omitempty" yaml:"count,omitempty"`
}

// WithStatement is one common table expression.
type WithStatement struct {
	Name    *Token           `json:"name" yaml:"name"`
	Columns []*ColumnName    `json:"columns,omitempty" yaml:"columns,omitempty"`
	Select  *SelectStatement `json:"select" yaml:"select"`
}

// UnionType tags a set operation link.
type UnionType string

// Set operation kinds.
const (
	UnionDistinct UnionType = "UNION"
	UnionAll      UnionType = "UNION_ALL"
	Intersect     UnionType = "INTERSECT"
	Except        UnionType = "EXCEPT"
)

// Keyword returns the SQL spelling of the set operator.
func (u UnionType) Keyword() string {
	if u == UnionAll {
		return "UNION ALL"
	}
	return string(u)
}

// UnionStatement is a set operation applied against the preceding query.
type UnionStatement struct {
	Type   UnionType        `json:"type" yaml:"type"`
	Select *SelectStatement `json:"select" yaml:"select"`
}

// InsertStatement inserts either literal rows or the result of a query.
// Values and Select are mutually exclusive.
type InsertStatement struct {
	TableName *TableName       `json:"table_name" yaml:"table_name"`
	Columns   []*ColumnName    `json:"columns,omitempty" yaml:"columns,omitempty"`
	Values    [][]*Token       `json:"values,omitempty" yaml:"values,omitempty"`
	Select    *SelectStatement `json:"select,omitempty" yaml:"select,omitempty"`
}

func (*InsertStatement) stmtNode() {}

// NameValueItem is an assignment such as col = expr or @v += 1.
type NameValueItem struct {
	Name     *Token `json:"name" yaml:"name"`
	Operator string `json:"operator" yaml:"operator"`
	Value    *Token `json:"value" yaml:"value"`
}

// UpdateStatement updates one or more targets.
type UpdateStatement struct {
	TopInfo    *TopInfo         `json:"top,omitempty" yaml:"top,omitempty"`
	TableNames []*TableName     `json:"table_names" yaml:"table_names"`
	SetItems   []*NameValueItem `json:"set" yaml:"set"`
	FromItems  []*FromItem      `json:"from,omitempty" yaml:"from,omitempty"`
	Condition  *Token           `json:"where,omitempty" yaml:"where,omitempty"`
	Option     *Token           `json:"option,omitempty" yaml:"option,omitempty"`
}

func (*UpdateStatement) stmtNode() {}

// DeleteStatement deletes rows from a table.
type DeleteStatement struct {
	TopInfo   *TopInfo    `json:"top,omitempty" yaml:"top,omitempty"`
	TableName *TableName  `json:"table_name" yaml:"table_name"`
	FromItems []*FromItem `json:"from,omitempty" yaml:"from,omitempty"`
	Condition *Token      `json:"where,omitempty" yaml:"where,omitempty"`
	Option    *Token      `json:"option,omitempty" yaml:"option,omitempty"`
}

func (*DeleteStatement) stmtNode() {}

// TruncateStatement empties a table.
type TruncateStatement struct {
	TableName *TableName `json:"table_name" yaml:"table_name"`
}

func (*TruncateStatement) stmtNode() {}

// ---------- Declarations and assignment ----------

// DeclareType distinguishes the forms of DECLARE.
type DeclareType string

// Declare forms.
const (
	DeclareVariable DeclareType = "VARIABLE"
	DeclareTable    DeclareType = "TABLE"
	DeclareCursor   DeclareType = "CURSOR"
)

// TemporaryTable is a table variable or table return type definition.
type TemporaryTable struct {
	Name    *Token        `json:"name" yaml:"name"`
	Columns []*ColumnName `json:"columns" yaml:"columns"`
}

// DeclareStatement declares one local variable.
type DeclareStatement struct {
	Type         DeclareType     `json:"type" yaml:"type"`
	Name         *Token          `json:"name" yaml:"name"`
	DataType     *Token          `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	Table        *TemporaryTable `json:"table,omitempty" yaml:"table,omitempty"`
	DefaultValue *Token          `json:"default,omitempty" yaml:"default,omitempty"`
}

func (*DeclareStatement) stmtNode() {}

// SetStatement assigns a variable, or sets a session option when Option is true.
type SetStatement struct {
	Key      *Token `json:"key" yaml:"key"`
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    *Token `json:"value,omitempty" yaml:"value,omitempty"`
	Option   bool   `json:"option,omitempty" yaml:"option,omitempty"`
}

func (*SetStatement) stmtNode() {}

// ---------- Control flow ----------

// IfItemType tags a branch of an IfStatement.
type IfItemType string

// If branch kinds.
const (
	IfItemIf   IfItemType = "IF"
	IfItemElse IfItemType = "ELSE"
)

// IfStatementItem is one branch. Condition is nil for ELSE.
type IfStatementItem struct {
	Type       IfItemType  `json:"type" yaml:"type"`
	Condition  *Token      `json:"condition,omitempty" yaml:"condition,omitempty"`
	Statements []Statement `json:"statements" yaml:"statements"`
}

// IfStatement holds one IF item and at most one ELSE item.
// ELSE IF is an IfStatement nested inside the ELSE item.
type IfStatement struct {
	Items []*IfStatementItem `json:"items" yaml:"items"`
}

func (*IfStatement) stmtNode() {}

// LoopKind tags the loop construct.
type LoopKind string

// Loop kinds.
const (
	LoopWhile LoopKind = "WHILE"
	LoopFor   LoopKind = "FOR"
	LoopLoop  LoopKind = "LOOP"
)

// LoopStatement is a loop with a verbatim condition.
type LoopStatement struct {
	Kind       LoopKind    `json:"kind" yaml:"kind"`
	Condition  *Token      `json:"condition,omitempty" yaml:"condition,omitempty"`
	Statements []Statement `json:"statements" yaml:"statements"`
}

func (*LoopStatement) stmtNode() {}

// BreakStatement exits the innermost loop.
type BreakStatement struct{}

func (*BreakStatement) stmtNode() {}

// ContinueStatement restarts the innermost loop.
type ContinueStatement struct{}

func (*ContinueStatement) stmtNode() {}

// TryCatchStatement holds a protected block and its handler.
type TryCatchStatement struct {
	TryStatements   []Statement `json:"try" yaml:"try"`
	CatchStatements []Statement `json:"catch" yaml:"catch"`
}

func (*TryCatchStatement) stmtNode() {}

// ReturnStatement returns a value.
type ReturnStatement struct {
	Value *Token `json:"value" yaml:"value"`
}

func (*ReturnStatement) stmtNode() {}

// LeaveStatement exits the routine without a value.
type LeaveStatement struct{}

func (*LeaveStatement) stmtNode() {}

// ---------- Commands ----------

// PrintStatement prints a message expression.
type PrintStatement struct {
	Content *Token `json:"content" yaml:"content"`
}

func (*PrintStatement) stmtNode() {}

// CallArgument is one argument of a routine call.
type CallArgument struct {
	Name   *Token `json:"name,omitempty" yaml:"name,omitempty"` // parameter name for named arguments
	Value  *Token `json:"value" yaml:"value"`
	Output bool   `json:"output,omitempty" yaml:"output,omitempty"`
}

// CallStatement executes a stored routine, or a dynamic SQL string when
// Dynamic is set and Name is nil.
type CallStatement struct {
	Name           *Token          `json:"name,omitempty" yaml:"name,omitempty"`
	ReturnVariable *Token          `json:"return_variable,omitempty" yaml:"return_variable,omitempty"`
	Arguments      []*CallArgument `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Dynamic        *Token          `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
}

func (*CallStatement) stmtNode() {}

// TransactionCommand tags a transaction statement.
type TransactionCommand string

// Transaction commands.
const (
	TransactionBegin    TransactionCommand = "BEGIN"
	TransactionCommit   TransactionCommand = "COMMIT"
	TransactionRollback TransactionCommand = "ROLLBACK"
)

// TransactionStatement begins, commits or rolls back a transaction.
type TransactionStatement struct {
	Command TransactionCommand `json:"command" yaml:"command"`
	Name    *Token             `json:"name,omitempty" yaml:"name,omitempty"`
}

func (*TransactionStatement) stmtNode() {}

// ---------- Cursors ----------

// DeclareCursorStatement declares a named cursor over a query.
type DeclareCursorStatement struct {
	Name    *Token           `json:"name" yaml:"name"`
	Options []*Token         `json:"options,omitempty" yaml:"options,omitempty"`
	Select  *SelectStatement `json:"select" yaml:"select"`
}

func (*DeclareCursorStatement) stmtNode() {}

// OpenCursorStatement opens a cursor.
type OpenCursorStatement struct {
	Name *Token `json:"name" yaml:"name"`
}

func (*OpenCursorStatement) stmtNode() {}

// FetchCursorStatement fetches the next row into variables.
type FetchCursorStatement struct {
	Name      *Token   `json:"name" yaml:"name"`
	Direction string   `json:"direction,omitempty" yaml:"direction,omitempty"`
	Variables []*Token `json:"variables" yaml:"variables"`
}

func (*FetchCursorStatement) stmtNode() {}

// CloseCursorStatement closes a cursor.
type CloseCursorStatement struct {
	Name *Token `json:"name" yaml:"name"`
}

func (*CloseCursorStatement) stmtNode() {}

// DeallocateCursorStatement releases a cursor.
type DeallocateCursorStatement struct {
	Name *Token `json:"name" yaml:"name"`
}

func (*DeallocateCursorStatement) stmtNode() {}
