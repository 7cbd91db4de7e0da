package core

// Statement is the root of the closed set of canonical statements.
// Only types in this package implement it.
type Statement interface {
	stmtNode() // Marker method to close the variant set
}

// StatementName returns a short upper-case label for the statement variant.
func StatementName(s Statement) string {
	switch st := s.(type) {
	case *SelectStatement:
		return "SELECT"
	case *InsertStatement:
		return "INSERT"
	case *UpdateStatement:
		return "UPDATE"
	case *DeleteStatement:
		return "DELETE"
	case *DeclareStatement:
		return "DECLARE"
	case *SetStatement:
		return "SET"
	case *IfStatement:
		return "IF"
	case *LoopStatement:
		return string(st.Kind)
	case *TryCatchStatement:
		return "TRY_CATCH"
	case *ReturnStatement:
		return "RETURN"
	case *LeaveStatement:
		return "LEAVE"
	case *PrintStatement:
		return "PRINT"
	case *CallStatement:
		return "CALL"
	case *TransactionStatement:
		return string(st.Command) + "_TRANSACTION"
	case *TruncateStatement:
		return "TRUNCATE"
	case *DeclareCursorStatement:
		return "DECLARE_CURSOR"
	case *OpenCursorStatement:
		return "OPEN_CURSOR"
	case *FetchCursorStatement:
		return "FETCH_CURSOR"
	case *CloseCursorStatement:
		return "CLOSE_CURSOR"
	case *DeallocateCursorStatement:
		return "DEALLOCATE_CURSOR"
	case *BreakStatement:
		return "BREAK"
	case *ContinueStatement:
		return "CONTINUE"
	default:
		return "UNKNOWN"
	}
}

// Walk calls fn for every statement in stmts and, depth first, for the
// statements nested in their bodies. Returning false stops descent into the
// visited statement.
func Walk(stmts []Statement, fn func(Statement) bool) {
	for _, s := range stmts {
		if !fn(s) {
			continue
		}
		switch st := s.(type) {
		case *IfStatement:
			for _, item := range st.Items {
				Walk(item.Statements, fn)
			}
		case *LoopStatement:
			Walk(st.Statements, fn)
		case *TryCatchStatement:
			Walk(st.TryStatements, fn)
			Walk(st.CatchStatements, fn)
		}
	}
}
