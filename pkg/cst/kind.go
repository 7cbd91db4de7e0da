package cst

import "fmt"

// Kind tags a node with the grammar construct it was produced by.
// The set is closed: analysers dispatch with a switch over these values.
type Kind uint8

// Node kinds.
const (
	Invalid Kind = iota
	Terminal
	File

	// Create statements and their parts
	CreateProcedure
	CreateFunction
	CreateView
	CreateTrigger
	SchemaObjectName // [db.][schema.]name
	ProcedureParam
	DataType
	DefaultValue
	ReturnsScalar      // RETURNS type
	ReturnsTable       // RETURNS @t TABLE (...)
	ReturnsInlineTable // RETURNS TABLE
	TableTypeDefinition
	ColumnDefinition
	DmlTriggerOperation
	RoutineOption // WITH ENCRYPTION, SCHEMABINDING, ...

	// Control flow
	Block
	IfStatement
	WhileStatement
	BreakStatement
	ContinueStatement
	ReturnStatement
	TryCatchStatement
	TryBlock
	CatchBlock

	// Other statements
	DeclareStatement
	DeclareLocal
	DeclareTable
	DeclareCursor
	CursorName
	SetStatement
	PrintStatement
	ExecuteStatement
	ExecuteArg
	TransactionStatement
	OpenCursor
	CloseCursor
	DeallocateCursor
	FetchCursor

	// DML
	SelectStatement
	WithExpression
	CommonTableExpression
	ColumnNameList
	QuerySpecification
	SetOperation
	TopClause
	SelectList
	Asterisk
	ColumnElem
	ExpressionElem
	ColumnAlias
	IntoClause
	TableSources
	TableSource
	TableSourceItem
	DerivedTable
	TableAlias
	JoinPart
	PivotClause
	UnpivotClause
	TableName
	SearchCondition
	GroupByItem
	OrderByClause
	OrderByExpression
	OffsetClause
	FetchClause
	OptionClause
	ForClause // FOR XML | JSON | BROWSE
	InsertStatement
	TableValueConstructor
	UpdateStatement
	UpdateElem
	DeleteStatement
	TruncateTable

	// Expressions
	Expression
	ExpressionList
	FunctionCall
	ScalarFunctionName
	FullColumnName
	Subquery
	CaseExpression
	OverClause

	// Other is a statement the grammar recognises only by its extent.
	Other
)

var kindNames = [...]string{
	Invalid:               "Invalid",
	Terminal:              "Terminal",
	File:                  "File",
	CreateProcedure:       "CreateProcedure",
	CreateFunction:        "CreateFunction",
	CreateView:            "CreateView",
	CreateTrigger:         "CreateTrigger",
	SchemaObjectName:      "SchemaObjectName",
	ProcedureParam:        "ProcedureParam",
	DataType:              "DataType",
	DefaultValue:          "DefaultValue",
	ReturnsScalar:         "ReturnsScalar",
	ReturnsTable:          "ReturnsTable",
	ReturnsInlineTable:    "ReturnsInlineTable",
	TableTypeDefinition:   "TableTypeDefinition",
	ColumnDefinition:      "ColumnDefinition",
	DmlTriggerOperation:   "DmlTriggerOperation",
	RoutineOption:         "RoutineOption",
	Block:                 "Block",
	IfStatement:           "IfStatement",
	WhileStatement:        "WhileStatement",
	BreakStatement:        "BreakStatement",
	ContinueStatement:     "ContinueStatement",
	ReturnStatement:       "ReturnStatement",
	TryCatchStatement:     "TryCatchStatement",
	TryBlock:              "TryBlock",
	CatchBlock:            "CatchBlock",
	DeclareStatement:      "DeclareStatement",
	DeclareLocal:          "DeclareLocal",
	DeclareTable:          "DeclareTable",
	DeclareCursor:         "DeclareCursor",
	CursorName:            "CursorName",
	SetStatement:          "SetStatement",
	PrintStatement:        "PrintStatement",
	ExecuteStatement:      "ExecuteStatement",
	ExecuteArg:            "ExecuteArg",
	TransactionStatement:  "TransactionStatement",
	OpenCursor:            "OpenCursor",
	CloseCursor:           "CloseCursor",
	DeallocateCursor:      "DeallocateCursor",
	FetchCursor:           "FetchCursor",
	SelectStatement:       "SelectStatement",
	WithExpression:        "WithExpression",
	CommonTableExpression: "CommonTableExpression",
	ColumnNameList:        "ColumnNameList",
	QuerySpecification:    "QuerySpecification",
	SetOperation:          "SetOperation",
	TopClause:             "TopClause",
	SelectList:            "SelectList",
	Asterisk:              "Asterisk",
	ColumnElem:            "ColumnElem",
	ExpressionElem:        "ExpressionElem",
	ColumnAlias:           "ColumnAlias",
	IntoClause:            "IntoClause",
	TableSources:          "TableSources",
	TableSource:           "TableSource",
	TableSourceItem:       "TableSourceItem",
	DerivedTable:          "DerivedTable",
	TableAlias:            "TableAlias",
	JoinPart:              "JoinPart",
	PivotClause:           "PivotClause",
	UnpivotClause:         "UnpivotClause",
	TableName:             "TableName",
	SearchCondition:       "SearchCondition",
	GroupByItem:           "GroupByItem",
	OrderByClause:         "OrderByClause",
	OrderByExpression:     "OrderByExpression",
	OffsetClause:          "OffsetClause",
	FetchClause:           "FetchClause",
	OptionClause:          "OptionClause",
	ForClause:             "ForClause",
	InsertStatement:       "InsertStatement",
	TableValueConstructor: "TableValueConstructor",
	UpdateStatement:       "UpdateStatement",
	UpdateElem:            "UpdateElem",
	DeleteStatement:       "DeleteStatement",
	TruncateTable:         "TruncateTable",
	Expression:            "Expression",
	ExpressionList:        "ExpressionList",
	FunctionCall:          "FunctionCall",
	ScalarFunctionName:    "ScalarFunctionName",
	FullColumnName:        "FullColumnName",
	Subquery:              "Subquery",
	CaseExpression:        "CaseExpression",
	OverClause:            "OverClause",
	Other:                 "Other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsCreate reports whether k is one of the top-level create statements.
func (k Kind) IsCreate() bool {
	return k >= CreateProcedure && k <= CreateTrigger
}
