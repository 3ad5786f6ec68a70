package ir

import (
	"fmt"
	"strconv"
	"strings"
)

func (v VarID) String() string   { return "v" + strconv.FormatUint(uint64(v), 10) }
func (b BlockID) String() string { return "b" + strconv.FormatUint(uint64(b), 10) }

func (k CtorKind) String() string {
	switch k {
	case CtorTuple:
		return "tuple"
	case CtorStruct:
		return "struct"
	case CtorEnumVariant:
		return "variant"
	case CtorList:
		return "list"
	}
	return "ctor(" + strconv.Itoa(int(k)) + ")"
}

func varList(vars []VarID) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func valueString(v Value) string {
	switch val := v.(type) {
	case VarRef:
		return val.ID.String()
	case Lit:
		switch val.Kind {
		case LitUnit:
			return "const unit"
		case LitBool:
			return "const " + strconv.FormatBool(val.BoolVal)
		case LitInt:
			return "const " + strconv.FormatInt(val.IntVal, 10)
		case LitFloat:
			return "const " + strconv.FormatFloat(val.FloatVal, 'g', -1, 64)
		case LitStr:
			return "const " + strconv.Quote(val.StrVal)
		case LitChar:
			return "const " + strconv.QuoteRune(val.CharVal)
		}
		return "const ?"
	case PrimOp:
		return val.Op + " " + varList(val.Args)
	}
	panic(fmt.Sprintf("unhandled value type: %T", v))
}

func instrString(in Instr) string {
	switch i := in.(type) {
	case Let:
		return fmt.Sprintf("%s = %s", i.Dst, valueString(i.Val))
	case Apply:
		return fmt.Sprintf("%s = call %s(%s)", i.Dst, i.Callee, varList(i.Args))
	case Project:
		return fmt.Sprintf("%s = project %s.%d", i.Dst, i.Base, i.Field)
	case Construct:
		name := i.Kind.String()
		if i.Kind == CtorStruct {
			name = i.TypeName
		}
		if i.Kind == CtorEnumVariant {
			name = fmt.Sprintf("%s#%d", i.TypeName, i.Tag)
		}
		return fmt.Sprintf("%s = construct %s(%s)", i.Dst, name, varList(i.Args))
	}
	panic(fmt.Sprintf("unhandled instruction type: %T", in))
}

func termString(t Terminator) string {
	switch term := t.(type) {
	case Return:
		return "ret " + term.Value.String()
	case Jump:
		if len(term.Args) == 0 {
			return "jump " + term.Target.String()
		}
		return fmt.Sprintf("jump %s(%s)", term.Target, varList(term.Args))
	case Branch:
		return fmt.Sprintf("branch %s, %s, %s", term.Cond, term.Then, term.Else)
	case Switch:
		var sb strings.Builder
		fmt.Fprintf(&sb, "switch %s [", term.Scrutinee)
		for i, c := range term.Cases {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%d -> %s", c.Value, c.Target)
		}
		fmt.Fprintf(&sb, "] default %s", term.Default)
		return sb.String()
	case Unreachable:
		return "unreachable"
	case nil:
		return "<open>"
	}
	panic(fmt.Sprintf("unhandled terminator type: %T", t))
}

func paramList(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Var.String() + ": " + p.Type.String()
	}
	return strings.Join(parts, ", ")
}

// String renders the function in a stable textual form, one instruction
// per line, suitable for tests and debugging dumps.
func (f *Function) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s(%s) -> %s {\n", f.Name, paramList(f.Params), f.RetType)
	for _, blk := range f.Blocks {
		if len(blk.Params) == 0 {
			fmt.Fprintf(&sb, "%s:\n", blk.ID)
		} else {
			fmt.Fprintf(&sb, "%s(%s):\n", blk.ID, paramList(blk.Params))
		}
		for _, in := range blk.Instrs {
			fmt.Fprintf(&sb, "  %s\n", instrString(in))
		}
		fmt.Fprintf(&sb, "  %s\n", termString(blk.Term))
	}
	sb.WriteString("}\n")
	return sb.String()
}
