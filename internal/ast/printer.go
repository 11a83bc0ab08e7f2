package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders a block back to Ember source text, for the round-trip
// testable property in spec.md §8 ("reprint of the AST followed by
// re-parse yields an α-equivalent AST"); no test in this repository runs
// that property. A Return is printed as its bare expression, which the
// parser's Block.Finish turns back into a Return. It is grounded on the teacher's
// own source-producing pretty printer
// (_examples/funvibe-funxy/internal/prettyprinter/code_printer.go), reduced
// to Ember's much smaller expression grammar.
func Print(b *Block) string {
	p := &printer{}
	for i, s := range b.Statements {
		if i > 0 {
			p.buf.WriteString("; ")
		}
		p.printStmt(s)
	}
	return p.buf.String()
}

type printer struct {
	buf strings.Builder
}

func (p *printer) printStmt(s Statement) {
	switch n := s.(type) {
	case *Definition:
		p.buf.WriteString(n.Variable.Name)
		if n.TypeAnn != nil {
			p.buf.WriteString(" : ")
			p.printType(n.TypeAnn)
		}
		p.buf.WriteString(" = ")
		p.printExpr(n.Expr)
	case *Invocation:
		p.printExpr(n.Expr)
	case *Return:
		p.printExpr(n.Expr)
	}
}

func (p *printer) printType(t Type) {
	switch n := t.(type) {
	case *TypeName:
		p.buf.WriteString(n.Name)
	case *ListType:
		p.buf.WriteString("[")
		p.printType(n.Elem)
		p.buf.WriteString("]")
	case *FunctionType:
		p.buf.WriteString("|")
		for i, pt := range n.ParamTypes {
			if i > 0 {
				p.buf.WriteString(" ")
			}
			if n.ParamNames[i] != "" {
				p.buf.WriteString(n.ParamNames[i] + ":")
			}
			if pt != nil {
				p.printType(pt)
			}
		}
		p.buf.WriteString("| -> ")
		if n.Result != nil {
			p.printType(n.Result)
		} else {
			p.buf.WriteString("Auto")
		}
	}
}

func (p *printer) printExpr(e Expression) {
	switch n := e.(type) {
	case *Integer:
		p.buf.WriteString(strconv.FormatInt(n.Value, 10))
	case *Float:
		p.buf.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
	case *CharLit:
		p.buf.WriteString("'" + string(n.Value) + "'")
	case *StringLit:
		p.buf.WriteString(strconv.Quote(n.Value))
	case *VoidLiteral:
		p.buf.WriteString("void")
	case *Tuple:
		p.printList(n.Items, ", ")
	case *List:
		p.buf.WriteString("[")
		p.printList(n.Items, ", ")
		p.buf.WriteString("]")
	case *Reference:
		p.buf.WriteString(n.Identifier.Name)
	case *OpCall:
		if len(n.Args) == 2 {
			p.printExpr(n.Args[0])
			p.buf.WriteString(" " + n.Op.String() + " ")
			p.printExpr(n.Args[1])
		} else if len(n.Args) == 1 {
			p.buf.WriteString(n.Op.String())
			p.printExpr(n.Args[0])
		}
	case *Call:
		p.printExpr(n.Callable)
		for _, a := range n.Args {
			p.buf.WriteString(" ")
			p.printExpr(a)
		}
	case *Condition:
		p.buf.WriteString("if ")
		p.printExpr(n.Cond)
		p.buf.WriteString(" then ")
		p.printExpr(n.Then)
		p.buf.WriteString(" else ")
		p.printExpr(n.Else)
	case *Function:
		p.buf.WriteString("fun ")
		if ft, ok := n.TypeAnn.(*FunctionType); ok {
			p.printType(ft)
		}
		p.buf.WriteString(" { ")
		p.buf.WriteString(Print(n.Body))
		p.buf.WriteString(" }")
	case *Literal:
		fmt.Fprintf(&p.buf, "%v", n.Payload)
	}
}

func (p *printer) printList(items []Expression, sep string) {
	for i, it := range items {
		if i > 0 {
			p.buf.WriteString(sep)
		}
		p.printExpr(it)
	}
}
