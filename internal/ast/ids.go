package ast

// ExprID, StmtID, and DeclID are stable 1-based handles into a
// CompilationUnit's arenas (spec.md §3 "Expression node", "Statement node").
type (
	ExprID  uint32
	StmtID  uint32
	DeclID  uint32
	ParamID uint32
)

const (
	NoExprID  ExprID  = 0
	NoStmtID  StmtID  = 0
	NoDeclID  DeclID  = 0
	NoParamID ParamID = 0
)

func (id ExprID) IsValid() bool  { return id != NoExprID }
func (id StmtID) IsValid() bool  { return id != NoStmtID }
func (id DeclID) IsValid() bool  { return id != NoDeclID }
func (id ParamID) IsValid() bool { return id != NoParamID }
