package scene

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/quadfill"
)

// Path errors.
var (
	// ErrBadPath is returned for malformed path data.
	ErrBadPath = errors.New("scene: malformed path")

	// ErrUnsupportedCommand is returned for path commands that produce
	// cubics or arcs, which frames cannot hold.
	ErrUnsupportedCommand = errors.New("scene: unsupported path command")
)

// AppendPath adds the subpaths of SVG path data d to the current shard of
// b. Supported commands are M, L, H, V, Q, T and Z in absolute and
// relative form. C, S and A are rejected with ErrUnsupportedCommand.
func AppendPath(b *quadfill.FrameBuilder, d string) error {
	tokens := tokenizePath(d)
	p := pathParser{b: b, tokens: tokens}
	return p.parse()
}

type pathParser struct {
	b      *quadfill.FrameBuilder
	tokens []string
	i      int

	cur, start quadfill.Vec2
	lastCtrl   quadfill.Vec2
	lastCmd    byte
	open       bool
}

func (p *pathParser) parse() error {
	for p.i < len(p.tokens) {
		cmd := p.tokens[p.i][0]
		if isCommand(cmd) {
			p.i++
		} else {
			// Bare numbers repeat the previous command; after a moveto
			// they are linetos.
			switch p.lastCmd {
			case 0, 'Z', 'z':
				return fmt.Errorf("%w: number %q without a command", ErrBadPath, p.tokens[p.i])
			case 'M':
				cmd = 'L'
			case 'm':
				cmd = 'l'
			default:
				cmd = p.lastCmd
			}
		}
		if err := p.command(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (p *pathParser) command(cmd byte) error {
	relative := cmd >= 'a' && cmd <= 'z'
	upper := cmd
	if relative {
		upper = cmd - 'a' + 'A'
	}
	if !p.open && upper != 'M' && upper != 'Z' {
		// Drawing after Z continues from the subpath start.
		p.b.MoveTo(p.cur.X, p.cur.Y)
		p.start = p.cur
		p.open = true
	}

	switch upper {
	case 'M':
		pt, err := p.point(relative)
		if err != nil {
			return err
		}
		p.b.MoveTo(pt.X, pt.Y)
		p.cur, p.start, p.lastCtrl = pt, pt, pt
		p.open = true

	case 'L':
		pt, err := p.point(relative)
		if err != nil {
			return err
		}
		p.b.LineTo(pt.X, pt.Y)
		p.cur, p.lastCtrl = pt, pt

	case 'H':
		x, err := p.number()
		if err != nil {
			return err
		}
		if relative {
			x += p.cur.X
		}
		p.cur.X = x
		p.b.LineTo(p.cur.X, p.cur.Y)
		p.lastCtrl = p.cur

	case 'V':
		y, err := p.number()
		if err != nil {
			return err
		}
		if relative {
			y += p.cur.Y
		}
		p.cur.Y = y
		p.b.LineTo(p.cur.X, p.cur.Y)
		p.lastCtrl = p.cur

	case 'Q':
		ctrl, err := p.point(relative)
		if err != nil {
			return err
		}
		pt, err := p.point(relative)
		if err != nil {
			return err
		}
		p.b.QuadTo(ctrl.X, ctrl.Y, pt.X, pt.Y)
		p.cur, p.lastCtrl = pt, ctrl

	case 'T':
		ctrl := p.cur
		if p.lastCmd == 'Q' || p.lastCmd == 'q' || p.lastCmd == 'T' || p.lastCmd == 't' {
			ctrl = p.cur.Mul(2).Sub(p.lastCtrl)
		}
		pt, err := p.point(relative)
		if err != nil {
			return err
		}
		p.b.QuadTo(ctrl.X, ctrl.Y, pt.X, pt.Y)
		p.cur, p.lastCtrl = pt, ctrl

	case 'Z':
		p.b.Close()
		p.cur, p.lastCtrl = p.start, p.start
		p.open = false

	case 'C', 'S', 'A':
		return fmt.Errorf("%w: %c", ErrUnsupportedCommand, cmd)

	default:
		return fmt.Errorf("%w: unknown command %c", ErrBadPath, cmd)
	}
	p.lastCmd = cmd
	return nil
}

func (p *pathParser) number() (float32, error) {
	if p.i >= len(p.tokens) {
		return 0, fmt.Errorf("%w: missing number at end", ErrBadPath)
	}
	tok := p.tokens[p.i]
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrBadPath, tok)
	}
	p.i++
	return float32(v), nil
}

func (p *pathParser) point(relative bool) (quadfill.Vec2, error) {
	x, err := p.number()
	if err != nil {
		return quadfill.Vec2{}, err
	}
	y, err := p.number()
	if err != nil {
		return quadfill.Vec2{}, err
	}
	pt := quadfill.V2(x, y)
	if relative {
		pt = pt.Add(p.cur)
	}
	return pt, nil
}

func isCommand(c byte) bool {
	return (c >= 'A' && c <= 'Z' && c != 'E') || (c >= 'a' && c <= 'z' && c != 'e')
}

// tokenizePath splits path data into single-letter commands and numbers.
func tokenizePath(d string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(d); i++ {
		c := d[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			flush()
		case isCommand(c):
			flush()
			tokens = append(tokens, string(c))
		case c == '-' || c == '+':
			// A sign starts a new number unless it follows an exponent.
			if s := current.String(); s != "" {
				if last := s[len(s)-1]; last != 'e' && last != 'E' {
					flush()
				}
			}
			current.WriteByte(c)
		case c == '.':
			if strings.Contains(current.String(), ".") {
				flush()
			}
			current.WriteByte(c)
		default:
			current.WriteByte(c)
		}
	}
	flush()

	return tokens
}
