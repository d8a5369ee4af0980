package hostlang

import (
	"fmt"
	"strings"
)

// Print renders a node back to canonical source. The output is stable:
// structurally equal nodes print identically, and printed statements
// reparse to structurally equal trees.
func Print(n Node) string {
	var b strings.Builder
	printNode(&b, n, 0)
	return b.String()
}

func printNode(b *strings.Builder, n Node, indent int) {
	switch x := n.(type) {
	case *Class:
		printClass(b, x, indent)
	case *Field:
		printField(b, x, indent)
	case *Method:
		printMethod(b, x, indent)
	case *Param:
		fmt.Fprintf(b, "%s %s", x.Type, x.Name)
	case Stmt:
		printStmt(b, x, indent)
	case Expr:
		b.WriteString(printExpr(x, 0))
	}
}

func printClass(b *strings.Builder, c *Class, indent int) {
	ind := strings.Repeat("    ", indent)
	fmt.Fprintf(b, "%sclass %s {\n", ind, c.Name)
	for _, f := range c.Fields {
		printField(b, f, indent+1)
	}
	for _, m := range c.Methods {
		printMethod(b, m, indent+1)
	}
	fmt.Fprintf(b, "%s}\n", ind)
}

func printField(b *strings.Builder, f *Field, indent int) {
	ind := strings.Repeat("    ", indent)
	if f.Value != nil {
		fmt.Fprintf(b, "%s%s %s = %s;\n", ind, f.Type, f.Name, printExpr(f.Value, 0))
	} else {
		fmt.Fprintf(b, "%s%s %s;\n", ind, f.Type, f.Name)
	}
}

func printMethod(b *strings.Builder, m *Method, indent int) {
	ind := strings.Repeat("    ", indent)
	b.WriteString(ind)
	for _, mod := range m.Modifiers {
		b.WriteString(mod)
		b.WriteString(" ")
	}
	fmt.Fprintf(b, "%s %s(", m.ReturnType, m.Name)
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s %s", p.Type, p.Name)
	}
	b.WriteString(") ")
	printBlockInline(b, m.Body, indent)
	b.WriteString("\n")
}

// SignatureString renders a method header without its body, used to
// compare declared signatures.
func SignatureString(m *Method) string {
	var b strings.Builder
	for _, mod := range m.Modifiers {
		b.WriteString(mod)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "%s %s(", m.ReturnType, m.Name)
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", p.Type, p.Name)
	}
	b.WriteString(")")
	return b.String()
}

func printStmt(b *strings.Builder, s Stmt, indent int) {
	ind := strings.Repeat("    ", indent)
	switch x := s.(type) {
	case *Block:
		b.WriteString(ind)
		printBlockInline(b, x, indent)
		b.WriteString("\n")
	case *If:
		fmt.Fprintf(b, "%sif (%s) ", ind, printExpr(x.Cond, 0))
		printArm(b, x.Then, indent)
		if x.Else != nil {
			b.WriteString(" else ")
			printArm(b, x.Else, indent)
		}
		b.WriteString("\n")
	case *While:
		fmt.Fprintf(b, "%swhile (%s) ", ind, printExpr(x.Cond, 0))
		printArm(b, x.Body, indent)
		b.WriteString("\n")
	case *LocalVar:
		if x.Init != nil {
			fmt.Fprintf(b, "%s%s %s = %s;\n", ind, x.Type, x.Name, printExpr(x.Init, 0))
		} else {
			fmt.Fprintf(b, "%s%s %s;\n", ind, x.Type, x.Name)
		}
	case *Return:
		if x.Value != nil {
			fmt.Fprintf(b, "%sreturn %s;\n", ind, printExpr(x.Value, 0))
		} else {
			fmt.Fprintf(b, "%sreturn;\n", ind)
		}
	case *ExprStmt:
		fmt.Fprintf(b, "%s%s;\n", ind, printExpr(x.X, 0))
	}
}

// printArm prints the body of an if or while arm. Blocks stay on the
// same line; other statements are placed on the next line, indented.
func printArm(b *strings.Builder, s Stmt, indent int) {
	if blk, ok := s.(*Block); ok {
		printBlockInline(b, blk, indent)
		return
	}
	b.WriteString("\n")
	var inner strings.Builder
	printStmt(&inner, s, indent+1)
	b.WriteString(strings.TrimRight(inner.String(), "\n"))
}

func printBlockInline(b *strings.Builder, blk *Block, indent int) {
	ind := strings.Repeat("    ", indent)
	b.WriteString("{\n")
	for _, s := range blk.Stmts {
		printStmt(b, s, indent+1)
	}
	b.WriteString(ind)
	b.WriteString("}")
}

// Operator precedence levels for expression printing. Higher binds
// tighter; assignment is the loosest at 0.
var opPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

func printExpr(e Expr, outer int) string {
	switch x := e.(type) {
	case *Ident:
		return x.Name
	case *IntLit:
		return fmt.Sprintf("%d", x.Value)
	case *StringLit:
		return fmt.Sprintf("%q", x.Value)
	case *BoolLit:
		if x.Value {
			return "true"
		}
		return "false"
	case *Call:
		var b strings.Builder
		if x.Recv != nil {
			b.WriteString(printExpr(x.Recv, 8))
			b.WriteString(".")
		}
		b.WriteString(x.Name)
		b.WriteString("(")
		for i, a := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(printExpr(a, 0))
		}
		b.WriteString(")")
		return b.String()
	case *FieldAccess:
		return printExpr(x.Recv, 8) + "." + x.Name
	case *Unary:
		// A unary receiver needs parentheses: -x.f() parses as -(x.f()).
		if outer > 7 {
			return "(" + x.Op + printExpr(x.X, 7) + ")"
		}
		return x.Op + printExpr(x.X, 7)
	case *Binary:
		prec := opPrec[x.Op]
		s := printExpr(x.Lhs, prec) + " " + x.Op + " " + printExpr(x.Rhs, prec+1)
		if prec < outer {
			return "(" + s + ")"
		}
		return s
	case *Assign:
		s := printExpr(x.Target, 1) + " = " + printExpr(x.Value, 0)
		if outer > 0 {
			return "(" + s + ")"
		}
		return s
	}
	return ""
}
