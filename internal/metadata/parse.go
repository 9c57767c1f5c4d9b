package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTypeRef parses the textual type form:
//
//	[Assembly]Namespace.Name     named type (scope optional)
//	T<A,B>                       generic instance
//	T[]                          array
//	!0                           generic parameter
//
// The namespace is everything before the last dot of the dotted name.
func ParseTypeRef(s string) (*TypeRef, error) {
	p := typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

// MustParseTypeRef is ParseTypeRef for literals known to be valid.
func MustParseTypeRef(s string) *TypeRef {
	t, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) parseType() (*TypeRef, error) {
	p.skipSpace()
	var t *TypeRef
	if p.peek() == '!' {
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil {
			return nil, p.errorf("bad generic parameter index")
		}
		t = GenericParam(n)
	} else {
		named, err := p.parseNamed()
		if err != nil {
			return nil, err
		}
		t = named
		p.skipSpace()
		if p.peek() == '<' {
			p.pos++
			var args []*TypeRef
			for {
				arg, err := p.parseType()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				p.skipSpace()
				if p.peek() == ',' {
					p.pos++
					continue
				}
				if p.peek() != '>' {
					return nil, p.errorf("expected ',' or '>'")
				}
				p.pos++
				break
			}
			t = Instance(named, args...)
		}
	}
	for {
		p.skipSpace()
		if !strings.HasPrefix(p.src[p.pos:], "[]") {
			return t, nil
		}
		p.pos += 2
		t = ArrayOf(t)
	}
}

func (p *typeParser) parseNamed() (*TypeRef, error) {
	scope := ""
	if p.peek() == '[' {
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end < 0 {
			return nil, p.errorf("unterminated assembly scope")
		}
		scope = strings.TrimSpace(p.src[p.pos+1 : p.pos+end])
		if scope == "" {
			return nil, p.errorf("empty assembly scope")
		}
		p.pos += end + 1
	}
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("<>,[] \t", rune(p.src[p.pos])) {
		p.pos++
	}
	dotted := p.src[start:p.pos]
	if dotted == "" {
		return nil, p.errorf("expected type name")
	}
	ns, name := "", dotted
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		ns, name = dotted[:i], dotted[i+1:]
	}
	if name == "" {
		return nil, p.errorf("empty type name in %q", dotted)
	}
	return Named(scope, ns, name), nil
}
