package formula

import (
	"fmt"

	"github.com/dekarrin/mucalcsat/internal/muerrors"
)

// Parse parses a surface-syntax modal mu-calculus formula into the core AST.
// The rest of the pipeline only ever consumes *formula.Formula values, so
// any other front end producing the same AST shape works equally well.
//
// Accepted connectives (ASCII and common unicode spellings):
//
//	! ~ ¬        negation
//	&& & /\ ∧ ∩  conjunction
//	|| | \/ ∨ ∪  disjunction
//	-> => --> →  implication (sugar, desugars to !a || b)
//	<-> <-->  ↔  biconditional (sugar, desugars to (a->b) && (b->a))
//	xor ^ ⊕      exclusive or (sugar, desugars to (a&&!b) || (!a&&b))
//	mu μ, nu ν   least/greatest fixpoint binders: "mu X. body"
//	<> [ ]       diamond / box modalities
//	true false 1 0   literals
//
// Implication/xor/biconditional are surface sugar only: they are rewritten
// to AND/OR/NEG during parsing, so the core AST never grows beyond the node
// kinds listed in the formula package's documentation.
func Parse(src string) (*Formula, error) {
	toks, err := lex(src)
	if err != nil {
		le := err.(*lexError)
		return nil, muerrors.NewSyntaxError(le.msg, le.source, le.fullLine, le.line, le.pos)
	}

	p := &parser{toks: toks, bound: map[string]bool{}}
	f, err := p.formula0()
	if err != nil {
		return nil, err
	}
	if p.peek().class != tcEOF {
		return nil, p.errorf("unexpected %s after formula", p.peek().class.human())
	}
	return f, nil
}

type parser struct {
	toks  []token
	cur   int
	bound map[string]bool // variable names currently in scope
}

func (p *parser) peek() token  { return p.toks[p.cur] }
func (p *parser) next() token  { t := p.toks[p.cur]; p.cur++; return t }
func (p *parser) check(c tokenClass) bool {
	return p.peek().class == c
}

func (p *parser) errorf(format string, a ...interface{}) error {
	t := p.peek()
	msg := fmt.Sprintf(format, a...)
	return muerrors.NewSyntaxError(msg, t.lexeme, t.fullLine, t.line, t.pos)
}

// formula0 := formula1 (IMPLIES formula0 | IFF formula0)?
func (p *parser) formula0() (*Formula, error) {
	left, err := p.formula1()
	if err != nil {
		return nil, err
	}

	switch p.peek().class {
	case tcImplies:
		p.next()
		right, err := p.formula0()
		if err != nil {
			return nil, err
		}
		notLeft, err := negate(left)
		if err != nil {
			return nil, p.wrapNegateErr(err)
		}
		return NewOr(notLeft, right), nil
	case tcIff:
		p.next()
		right, err := p.formula0()
		if err != nil {
			return nil, err
		}
		notLeft, err := negate(left)
		if err != nil {
			return nil, p.wrapNegateErr(err)
		}
		notRight, err := negate(right)
		if err != nil {
			return nil, p.wrapNegateErr(err)
		}
		leftImpliesRight := NewOr(notLeft, right)
		rightImpliesLeft := NewOr(notRight, left)
		return NewAnd(leftImpliesRight, rightImpliesLeft), nil
	}
	return left, nil
}

// formula1 := formula2 (XOR formula2)*
func (p *parser) formula1() (*Formula, error) {
	left, err := p.formula2()
	if err != nil {
		return nil, err
	}
	for p.check(tcXor) {
		p.next()
		right, err := p.formula2()
		if err != nil {
			return nil, err
		}
		notLeft, err := negate(left)
		if err != nil {
			return nil, p.wrapNegateErr(err)
		}
		notRight, err := negate(right)
		if err != nil {
			return nil, p.wrapNegateErr(err)
		}
		left = NewOr(NewAnd(left, notRight), NewAnd(notLeft, right))
	}
	return left, nil
}

// formula2 := formula3 (OR formula3)*
func (p *parser) formula2() (*Formula, error) {
	left, err := p.formula3()
	if err != nil {
		return nil, err
	}
	for p.check(tcOr) {
		p.next()
		right, err := p.formula3()
		if err != nil {
			return nil, err
		}
		left = NewOr(left, right)
	}
	return left, nil
}

// formula3 := formula4 (AND formula4)*
func (p *parser) formula3() (*Formula, error) {
	left, err := p.formula4()
	if err != nil {
		return nil, err
	}
	for p.check(tcAnd) {
		p.next()
		right, err := p.formula4()
		if err != nil {
			return nil, err
		}
		left = NewAnd(left, right)
	}
	return left, nil
}

// formula4 := NEG formula4 | DIA formula4 | BOX formula4
//
//	| (MU|NU) ID "." formula4 | formula5
func (p *parser) formula4() (*Formula, error) {
	switch p.peek().class {
	case tcNeg:
		p.next()
		sub, err := p.formula4()
		if err != nil {
			return nil, err
		}
		neg, err := negate(sub)
		if err != nil {
			return nil, p.wrapNegateErr(err)
		}
		return neg, nil
	case tcDiamond:
		p.next()
		sub, err := p.formula4()
		if err != nil {
			return nil, err
		}
		return NewDia(sub), nil
	case tcBox:
		p.next()
		sub, err := p.formula4()
		if err != nil {
			return nil, err
		}
		return NewBox(sub), nil
	case tcMu, tcNu:
		isMu := p.peek().class == tcMu
		p.next()
		if !p.check(tcIdent) {
			return nil, p.errorf("expected a bound variable name after %s, found %s", map[bool]string{true: "mu", false: "nu"}[isMu], p.peek().class.human())
		}
		nameTok := p.next()
		name := nameTok.lexeme
		if !isUpperFirst(name) {
			return nil, muerrors.NewSyntaxError(
				fmt.Sprintf("bound variable %q must start with an uppercase letter", name),
				nameTok.lexeme, nameTok.fullLine, nameTok.line, nameTok.pos)
		}
		if p.bound[name] {
			return nil, muerrors.NewSyntaxError(
				fmt.Sprintf("variable %q is already bound in an enclosing scope; no binder may shadow a variable", name),
				nameTok.lexeme, nameTok.fullLine, nameTok.line, nameTok.pos)
		}
		if !p.check(tcDot) {
			return nil, p.errorf("expected '.' after binder variable %q, found %s", name, p.peek().class.human())
		}
		p.next()

		p.bound[name] = true
		body, err := p.formula4()
		p.bound[name] = false
		if err != nil {
			return nil, err
		}

		if isMu {
			return NewMu(name, body), nil
		}
		return NewNu(name, body), nil
	default:
		return p.formula5()
	}
}

// formula5 := LIT | IDENT | "(" formula0 ")"
func (p *parser) formula5() (*Formula, error) {
	t := p.peek()
	switch t.class {
	case tcLit:
		p.next()
		return NewLit(t.litValue), nil
	case tcIdent:
		p.next()
		if isUpperFirst(t.lexeme) {
			if !p.bound[t.lexeme] {
				return nil, muerrors.NewSyntaxError(
					fmt.Sprintf("variable %q is not bound by any enclosing mu/nu", t.lexeme),
					t.lexeme, t.fullLine, t.line, t.pos)
			}
			return NewVar(t.lexeme), nil
		}
		return NewProp(t.lexeme), nil
	case tcLParen:
		p.next()
		inner, err := p.formula0()
		if err != nil {
			return nil, err
		}
		if !p.check(tcRParen) {
			return nil, p.errorf("expected ')', found %s", p.peek().class.human())
		}
		p.next()
		return inner, nil
	default:
		return nil, p.errorf("unexpected %s\n(%s cannot begin a formula)", t.class.human(), t.class.human())
	}
}

func isUpperFirst(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return r >= 'A' && r <= 'Z'
}

// negate computes the negation-normal-form negation of f, pushing the
// negation down via De Morgan and modal/Boolean duality until it only ever
// wraps a PROP. Negating a fixpoint or a bound variable is not supported:
// it would require substituting the dual variable through the body
// (NOT(mu X.phi) = nu X. NOT(phi[NOT X / X])), which breaks the "variables
// only occur positively" well-formedness the automaton construction
// assumes. Formulae that need that are rejected with a SyntaxError rather
// than silently mishandled.
func negate(f *Formula) (*Formula, error) {
	switch f.Kind {
	case Lit:
		return NewLit(!f.Bool), nil
	case Prop:
		return NewNeg(f), nil
	case Neg:
		// double negation: Sub is already a PROP
		return f.Sub, nil
	case And:
		l, err := negate(f.Left)
		if err != nil {
			return nil, err
		}
		r, err := negate(f.Right)
		if err != nil {
			return nil, err
		}
		return NewOr(l, r), nil
	case Or:
		l, err := negate(f.Left)
		if err != nil {
			return nil, err
		}
		r, err := negate(f.Right)
		if err != nil {
			return nil, err
		}
		return NewAnd(l, r), nil
	case Dia:
		s, err := negate(f.Sub)
		if err != nil {
			return nil, err
		}
		return NewBox(s), nil
	case Box:
		s, err := negate(f.Sub)
		if err != nil {
			return nil, err
		}
		return NewDia(s), nil
	case Var, Mu, Nu:
		return nil, fmt.Errorf("cannot negate %s: negating a fixpoint or a bound variable is not supported (rewrite the formula in positive normal form around its fixpoints)", f.Kind)
	default:
		return nil, fmt.Errorf("formula: unknown operator in negate: %v", f.Kind)
	}
}

func (p *parser) wrapNegateErr(err error) error {
	t := p.peek()
	return muerrors.NewSyntaxError(err.Error(), t.lexeme, t.fullLine, t.line, t.pos)
}
