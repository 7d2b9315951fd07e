// Package formula defines the modal mu-calculus abstract syntax tree (the
// shape the automata-theoretic core consumes, unchanged from node to node
// regardless of what surface syntax produced it) and a concrete parser that
// builds one from text.
//
// The AST shape is fixed: LIT, PROP, VAR, NEG (restricted to wrap a PROP),
// AND, OR, DIA, BOX, MU, NU. Structural equality and a canonical string
// encoding are defined over the full tuple shape so that formulae can be
// interned: physical and structural identity coincide within one run.
package formula

import (
	"fmt"
	"strings"
)

// Kind is the tag of the AST union.
type Kind int

const (
	Lit Kind = iota
	Prop
	Var
	Neg
	And
	Or
	Dia
	Box
	Mu
	Nu
)

func (k Kind) String() string {
	switch k {
	case Lit:
		return "LIT"
	case Prop:
		return "PROP"
	case Var:
		return "VAR"
	case Neg:
		return "NEG"
	case And:
		return "AND"
	case Or:
		return "OR"
	case Dia:
		return "DIA"
	case Box:
		return "BOX"
	case Mu:
		return "MU"
	case Nu:
		return "NU"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Formula is a node of the AST. It is a tagged union: only the fields
// relevant to Kind are meaningful.
//
//	Kind       meaningful fields
//	Lit        Bool
//	Prop       Name
//	Var        Name
//	Neg        Sub (restricted: Sub.Kind == Prop)
//	And, Or    Left, Right
//	Dia, Box   Sub
//	Mu, Nu     Name (bound variable), Sub (body)
type Formula struct {
	Kind  Kind
	Bool  bool
	Name  string
	Sub   *Formula
	Left  *Formula
	Right *Formula

	key string // memoized canonical encoding, computed on first use
}

// NewLit returns LIT(b).
func NewLit(b bool) *Formula { return &Formula{Kind: Lit, Bool: b} }

// NewProp returns PROP(name).
func NewProp(name string) *Formula { return &Formula{Kind: Prop, Name: name} }

// NewVar returns VAR(name).
func NewVar(name string) *Formula { return &Formula{Kind: Var, Name: name} }

// NewNeg returns NEG(sub). Panics if sub is not a PROP: negation is only
// ever applied to a proposition at the leaves (see negate in parser.go for
// how the surface parser enforces this).
func NewNeg(sub *Formula) *Formula {
	if sub.Kind != Prop {
		panic("formula: NEG may only wrap a PROP")
	}
	return &Formula{Kind: Neg, Sub: sub}
}

// NewAnd returns AND(l, r).
func NewAnd(l, r *Formula) *Formula { return &Formula{Kind: And, Left: l, Right: r} }

// NewOr returns OR(l, r).
func NewOr(l, r *Formula) *Formula { return &Formula{Kind: Or, Left: l, Right: r} }

// NewDia returns DIA(sub).
func NewDia(sub *Formula) *Formula { return &Formula{Kind: Dia, Sub: sub} }

// NewBox returns BOX(sub).
func NewBox(sub *Formula) *Formula { return &Formula{Kind: Box, Sub: sub} }

// NewMu returns MU(x, sub).
func NewMu(x string, sub *Formula) *Formula { return &Formula{Kind: Mu, Name: x, Sub: sub} }

// NewNu returns NU(x, sub).
func NewNu(x string, sub *Formula) *Formula { return &Formula{Kind: Nu, Name: x, Sub: sub} }

// Key returns the canonical string encoding of f, used as the interning key.
// Two formulae are structurally equal iff their Key()s are equal.
func (f *Formula) Key() string {
	if f.key != "" {
		return f.key
	}

	var sb strings.Builder
	f.encode(&sb)
	f.key = sb.String()
	return f.key
}

func (f *Formula) encode(sb *strings.Builder) {
	switch f.Kind {
	case Lit:
		if f.Bool {
			sb.WriteString("T")
		} else {
			sb.WriteString("F")
		}
	case Prop:
		sb.WriteString("P(")
		sb.WriteString(f.Name)
		sb.WriteString(")")
	case Var:
		sb.WriteString("V(")
		sb.WriteString(f.Name)
		sb.WriteString(")")
	case Neg:
		sb.WriteString("!(")
		f.Sub.encode(sb)
		sb.WriteString(")")
	case And:
		sb.WriteString("&(")
		f.Left.encode(sb)
		sb.WriteString(",")
		f.Right.encode(sb)
		sb.WriteString(")")
	case Or:
		sb.WriteString("|(")
		f.Left.encode(sb)
		sb.WriteString(",")
		f.Right.encode(sb)
		sb.WriteString(")")
	case Dia:
		sb.WriteString("<>(")
		f.Sub.encode(sb)
		sb.WriteString(")")
	case Box:
		sb.WriteString("[](")
		f.Sub.encode(sb)
		sb.WriteString(")")
	case Mu:
		sb.WriteString("mu ")
		sb.WriteString(f.Name)
		sb.WriteString(".(")
		f.Sub.encode(sb)
		sb.WriteString(")")
	case Nu:
		sb.WriteString("nu ")
		sb.WriteString(f.Name)
		sb.WriteString(".(")
		f.Sub.encode(sb)
		sb.WriteString(")")
	}
}

// String is a human-readable rendering, used for diagnostics.
func (f *Formula) String() string {
	switch f.Kind {
	case Lit:
		if f.Bool {
			return "true"
		}
		return "false"
	case Prop:
		return f.Name
	case Var:
		return f.Name
	case Neg:
		return "!" + f.Sub.String()
	case And:
		return "(" + f.Left.String() + " && " + f.Right.String() + ")"
	case Or:
		return "(" + f.Left.String() + " || " + f.Right.String() + ")"
	case Dia:
		return "<>" + f.Sub.String()
	case Box:
		return "[]" + f.Sub.String()
	case Mu:
		return "mu " + f.Name + ".(" + f.Sub.String() + ")"
	case Nu:
		return "nu " + f.Name + ".(" + f.Sub.String() + ")"
	default:
		return "?"
	}
}

// Substitute returns a copy of f with every free occurrence of VAR(name)
// replaced by replacement. This is exactly the fixpoint-unfolding rewrite
// Qx.psi -> psi[x |-> Qx.psi]: unfolding a binder calls Substitute(body,
// name, theBinderItself).
func Substitute(f *Formula, name string, replacement *Formula) *Formula {
	switch f.Kind {
	case Var:
		if f.Name == name {
			return replacement
		}
		return f
	case Lit, Prop:
		return f
	case Neg:
		// Sub is always a Prop, which Substitute leaves unchanged; still
		// recurse for uniformity.
		return NewNeg(Substitute(f.Sub, name, replacement))
	case And:
		return NewAnd(Substitute(f.Left, name, replacement), Substitute(f.Right, name, replacement))
	case Or:
		return NewOr(Substitute(f.Left, name, replacement), Substitute(f.Right, name, replacement))
	case Dia:
		return NewDia(Substitute(f.Sub, name, replacement))
	case Box:
		return NewBox(Substitute(f.Sub, name, replacement))
	case Mu:
		if f.Name == name {
			// shadowed: inner binder rebinds the same name, so name is no
			// longer free in the body. The AST invariant (no binder shadows
			// the same variable twice on any path) means this should not
			// normally be reached with a different replacement in flight,
			// but the rule is still correct: do not descend.
			return f
		}
		return NewMu(f.Name, Substitute(f.Sub, name, replacement))
	case Nu:
		if f.Name == name {
			return f
		}
		return NewNu(f.Name, Substitute(f.Sub, name, replacement))
	default:
		panic(fmt.Sprintf("formula: unknown operator in Substitute: %v", f.Kind))
	}
}

// AtomicProps returns the set of atomic proposition names syntactically
// appearing in f, in no particular order.
func AtomicProps(f *Formula) map[string]struct{} {
	props := make(map[string]struct{})
	collectProps(f, props)
	return props
}

func collectProps(f *Formula, into map[string]struct{}) {
	switch f.Kind {
	case Lit, Var:
		return
	case Prop:
		into[f.Name] = struct{}{}
	case Neg:
		collectProps(f.Sub, into)
	case And, Or:
		collectProps(f.Left, into)
		collectProps(f.Right, into)
	case Dia, Box:
		collectProps(f.Sub, into)
	case Mu, Nu:
		collectProps(f.Sub, into)
	}
}

// VariableOccurs returns whether VAR(name) occurs free in f, not crossing a
// binder that rebinds name.
func VariableOccurs(name string, f *Formula) bool {
	switch f.Kind {
	case Var:
		return f.Name == name
	case Mu, Nu:
		if f.Name == name {
			return false
		}
		return VariableOccurs(name, f.Sub)
	case And, Or:
		return VariableOccurs(name, f.Left) || VariableOccurs(name, f.Right)
	case Neg:
		return VariableOccurs(name, f.Sub)
	case Dia, Box:
		return VariableOccurs(name, f.Sub)
	default:
		return false
	}
}
