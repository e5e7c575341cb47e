package tr

import "strings"

// Mangle produces a stable, linker-safe external symbol name for e,
// supplementing the base entity model the way libFirm's ir/tr/mangle.c
// (and ir/ident/mangle.c) layer name mangling on top of the bare entity
// model: the immediate owner's name and the entity's name joined by "__",
// a parameter-type suffix for methods ("_" plus one code per parameter) to
// let overloads coexist, and privacy-scoped entities get a package-local
// "_ZL" prefix instead of being exported.
func Mangle(e *Entity) string {
	var parts []string
	for t := e.owner; t != nil; {
		t = skip(t)
		if t.name != "" {
			parts = append([]string{t.name}, parts...)
		}
		break
	}
	parts = append(parts, e.name)
	name := strings.Join(parts, "__")

	if e.typ != nil && e.typ.Kind() == KindMethod {
		name += mangleParams(e.typ.Params())
	}
	if e.visibility == VisibilityPrivate {
		name = "_ZL" + name
	}
	return name
}

func mangleParams(params []*Type) string {
	var b strings.Builder
	b.WriteByte('_')
	for _, p := range params {
		p = skip(p)
		switch p.Kind() {
		case KindPrimitive:
			b.WriteString(modeLetter(p))
		case KindPointer:
			b.WriteByte('P')
		default:
			b.WriteString("S")
			b.WriteString(lenDigits(len(p.Name())))
			b.WriteString(p.Name())
		}
	}
	return b.String()
}

func modeLetter(p *Type) string {
	if p.mode == nil {
		return "v"
	}
	if p.mode.IsFloat() {
		return "f"
	}
	if p.mode.IsSigned() {
		return "i"
	}
	return "j"
}

func lenDigits(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
