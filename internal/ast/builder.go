package ast

// Builder owns the arenas of one compile and provides typed accessors.
type Builder struct {
	Exprs   *Arena[Expr]
	Stmts   *Arena[Stmt]
	Funcs   *Arena[Function]
	Structs *Arena[StructDecl]
	Globals *Arena[GlobalVar]
}

func NewBuilder() *Builder {
	return &Builder{
		Exprs:   NewArena[Expr](256),
		Stmts:   NewArena[Stmt](128),
		Funcs:   NewArena[Function](8),
		Structs: NewArena[StructDecl](8),
		Globals: NewArena[GlobalVar](8),
	}
}

func (b *Builder) NewExpr(e Expr) ExprID {
	return ExprID(b.Exprs.Allocate(e))
}

func (b *Builder) NewStmt(s Stmt) StmtID {
	return StmtID(b.Stmts.Allocate(s))
}

func (b *Builder) NewFunc(f Function) FuncID {
	return FuncID(b.Funcs.Allocate(f))
}

func (b *Builder) NewStruct(s StructDecl) StructID {
	return StructID(b.Structs.Allocate(s))
}

func (b *Builder) NewGlobal(g GlobalVar) GlobalID {
	return GlobalID(b.Globals.Allocate(g))
}

func (b *Builder) Expr(id ExprID) *Expr          { return b.Exprs.Get(uint32(id)) }
func (b *Builder) Stmt(id StmtID) *Stmt          { return b.Stmts.Get(uint32(id)) }
func (b *Builder) Func(id FuncID) *Function      { return b.Funcs.Get(uint32(id)) }
func (b *Builder) Struct(id StructID) *StructDecl { return b.Structs.Get(uint32(id)) }
func (b *Builder) Global(id GlobalID) *GlobalVar { return b.Globals.Get(uint32(id)) }
