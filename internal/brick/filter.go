package brick

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// Expr is a compiled filter expression
type Expr interface {
	String() string
}

// Direction qualifies an address or port primitive
type Direction string

const (
	DirAny Direction = ""
	DirSrc Direction = "src"
	DirDst Direction = "dst"
)

// HostExpr matches an IP address
type HostExpr struct {
	Dir  Direction
	Addr netip.Addr
}

// NetExpr matches an IP prefix
type NetExpr struct {
	Dir    Direction
	Prefix netip.Prefix
}

// PortExpr matches a transport port
type PortExpr struct {
	Dir  Direction
	Port uint16
}

// EtherExpr matches a MAC address
type EtherExpr struct {
	Dir Direction
	MAC net.HardwareAddr
}

// ProtoExpr matches a protocol
type ProtoExpr struct {
	Proto string
}

// NotExpr negates X
type NotExpr struct {
	X Expr
}

// BinaryExpr combines two expressions with "and" or "or"
type BinaryExpr struct {
	Op          string
	Left, Right Expr
}

func dirPrefix(d Direction) string {
	if d == DirAny {
		return ""
	}
	return string(d) + " "
}

func (e *HostExpr) String() string  { return dirPrefix(e.Dir) + "host " + e.Addr.String() }
func (e *NetExpr) String() string   { return dirPrefix(e.Dir) + "net " + e.Prefix.String() }
func (e *PortExpr) String() string  { return dirPrefix(e.Dir) + "port " + strconv.Itoa(int(e.Port)) }
func (e *EtherExpr) String() string { return "ether " + dirPrefix(e.Dir) + "host " + e.MAC.String() }
func (e *ProtoExpr) String() string { return e.Proto }
func (e *NotExpr) String() string   { return "not " + e.X.String() }
func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op + " " + e.Right.String() + ")"
}

var protocols = map[string]bool{
	"ip": true, "ip6": true, "arp": true, "tcp": true,
	"udp": true, "icmp": true, "icmp6": true, "vlan": true,
}

// Compile parses a pcap-style filter. The supported subset is:
//
//	[src|dst] host ADDR
//	[src|dst] net CIDR
//	[src|dst] port N
//	ether [src|dst] host MAC
//	ip | ip6 | arp | tcp | udp | icmp | icmp6 | vlan
//
// combined with and/&&, or/||, not/! and parentheses. An empty filter is
// rejected.
func Compile(filter string) (Expr, error) {
	p := &parser{toks: tokenize(filter)}
	if len(p.toks) == 0 {
		return nil, fmt.Errorf("empty filter")
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
	}
	if !p.done() {
		return nil, fmt.Errorf("invalid filter %q: unexpected %q", filter, p.peek())
	}
	return expr, nil
}

func tokenize(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		case c == '(' || c == ')':
			flush()
			toks = append(toks, string(c))
		case c == '!' && (i+1 >= len(s) || s[i+1] != '='):
			flush()
			toks = append(toks, "!")
		case (c == '&' || c == '|') && i+1 < len(s) && s[i+1] == c:
			flush()
			toks = append(toks, s[i:i+2])
			i++
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return toks
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() string {
	if p.done() {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) next() (string, error) {
	if p.done() {
		return "", fmt.Errorf("unexpected end of filter")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == "or" || p.peek() == "||" {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek() == "and" || p.peek() == "&&" {
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	switch p.peek() {
	case "not", "!":
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{X: x}, nil
	case "(":
		p.pos++
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t, err := p.next(); err != nil || t != ")" {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return x, nil
	}
	return p.parsePrimitive()
}

func (p *parser) parseDirection() Direction {
	switch p.peek() {
	case "src":
		p.pos++
		return DirSrc
	case "dst":
		p.pos++
		return DirDst
	}
	return DirAny
}

func (p *parser) parsePrimitive() (Expr, error) {
	if protocols[p.peek()] {
		t, _ := p.next()
		proto := &ProtoExpr{Proto: t}
		// "tcp port 22" qualifies the primitive that follows with an
		// implicit and
		switch p.peek() {
		case "src", "dst", "host", "net", "port":
			x, err := p.parseQualified()
			if err != nil {
				return nil, err
			}
			return &BinaryExpr{Op: "and", Left: proto, Right: x}, nil
		}
		return proto, nil
	}

	if p.peek() == "ether" {
		p.pos++
		dir := p.parseDirection()
		if t, err := p.next(); err != nil || t != "host" {
			return nil, fmt.Errorf("expected 'host' after 'ether'")
		}
		v, err := p.next()
		if err != nil {
			return nil, err
		}
		mac, err := net.ParseMAC(v)
		if err != nil {
			return nil, fmt.Errorf("bad MAC address %q", v)
		}
		return &EtherExpr{Dir: dir, MAC: mac}, nil
	}

	return p.parseQualified()
}

// parseQualified parses "[src|dst] host|net|port VALUE"
func (p *parser) parseQualified() (Expr, error) {
	dir := p.parseDirection()
	keyword, err := p.next()
	if err != nil {
		return nil, err
	}
	value, err := p.next()
	if err != nil {
		return nil, fmt.Errorf("missing value after %q", keyword)
	}

	switch keyword {
	case "host":
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("bad host address %q", value)
		}
		return &HostExpr{Dir: dir, Addr: addr}, nil
	case "net":
		prefix, err := netip.ParsePrefix(value)
		if err != nil {
			return nil, fmt.Errorf("bad network %q", value)
		}
		return &NetExpr{Dir: dir, Prefix: prefix.Masked()}, nil
	case "port":
		n, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("bad port %q", value)
		}
		return &PortExpr{Dir: dir, Port: uint16(n)}, nil
	default:
		return nil, fmt.Errorf("unknown primitive %q", keyword)
	}
}
