package core

// JoinType tags a join link.
type JoinType string

// Join link kinds.
const (
	JoinInner   JoinType = "INNER"
	JoinLeft    JoinType = "LEFT"
	JoinRight   JoinType = "RIGHT"
	JoinFull    JoinType = "FULL"
	JoinCross   JoinType = "CROSS"
	JoinPivot   JoinType = "PIVOT"
	JoinUnpivot JoinType = "UNPIVOT"
)

// FromItem is a source table followed by its chain of join links.
// Exactly one of TableName and SubSelect is set.
type FromItem struct {
	TableName *TableName       `json:"table_name,omitempty" yaml:"table_name,omitempty"`
	SubSelect *SelectStatement `json:"sub_select,omitempty" yaml:"sub_select,omitempty"`
	Alias     *Token           `json:"alias,omitempty" yaml:"alias,omitempty"`
	JoinItems []*JoinItem      `json:"joins,omitempty" yaml:"joins,omitempty"`
}

// JoinItem is one link of a join chain. PIVOT and UNPIVOT links carry a
// payload instead of a target and condition.
type JoinItem struct {
	Type      JoinType         `json:"type" yaml:"type"`
	TableName *TableName       `json:"table_name,omitempty" yaml:"table_name,omitempty"`
	SubSelect *SelectStatement `json:"sub_select,omitempty" yaml:"sub_select,omitempty"`
	Alias     *Token           `json:"alias,omitempty" yaml:"alias,omitempty"`
	Condition *Token           `json:"condition,omitempty" yaml:"condition,omitempty"`
	Pivot     *PivotItem       `json:"pivot,omitempty" yaml:"pivot,omitempty"`
	Unpivot   *UnpivotItem     `json:"unpivot,omitempty" yaml:"unpivot,omitempty"`
}

// SwapTarget exchanges the join target of j and o, leaving the join kind
// and condition in place.
func (j *JoinItem) SwapTarget(o *JoinItem) {
	j.TableName, o.TableName = o.TableName, j.TableName
	j.SubSelect, o.SubSelect = o.SubSelect, j.SubSelect
	j.Alias, o.Alias = o.Alias, j.Alias
}

// PivotItem is the payload of a PIVOT link:
// PIVOT (fn(aggregated) FOR column IN (values)) alias.
type PivotItem struct {
	AggregationFunctionName *Token   `json:"function" yaml:"function"`
	AggregatedColumnName    *Token   `json:"aggregated_column" yaml:"aggregated_column"`
	ColumnName              *Token   `json:"column" yaml:"column"`
	Values                  []*Token `json:"values" yaml:"values"`
}

// UnpivotItem is the payload of an UNPIVOT link:
// UNPIVOT (value FOR column IN (columns)) alias.
type UnpivotItem struct {
	ValueColumnName *Token   `json:"value_column" yaml:"value_column"`
	ForColumnName   *Token   `json:"for_column" yaml:"for_column"`
	InColumnNames   []*Token `json:"in_columns" yaml:"in_columns"`
}
