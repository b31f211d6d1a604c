package grid

// Breakpoint buckets the available width.
type Breakpoint int

const (
	Mobile Breakpoint = iota
	SM
	MD
	LG
	XL
	XXL
)

// Upper bounds, in terminal cells, of each breakpoint below XXL.
const (
	MobileMaxWidth = 60
	SMMaxWidth     = 80
	MDMaxWidth     = 100
	LGMaxWidth     = 120
	XLMaxWidth     = 160
)

// Classify maps a width to its breakpoint.
func Classify(width int) Breakpoint {
	switch {
	case width <= MobileMaxWidth:
		return Mobile
	case width <= SMMaxWidth:
		return SM
	case width <= MDMaxWidth:
		return MD
	case width <= LGMaxWidth:
		return LG
	case width <= XLMaxWidth:
		return XL
	default:
		return XXL
	}
}

func (b Breakpoint) String() string {
	switch b {
	case Mobile:
		return "mobile"
	case SM:
		return "sm"
	case MD:
		return "md"
	case LG:
		return "lg"
	case XL:
		return "xl"
	case XXL:
		return "2xl"
	default:
		return "unknown"
	}
}

// ColumnSets holds the column array for each breakpoint a page defines.
type ColumnSets[R any] map[Breakpoint][]Column[R]

// For returns the set for b, else the nearest smaller defined set, else the
// nearest larger one.
func (s ColumnSets[R]) For(b Breakpoint) []Column[R] {
	for bp := b; bp >= Mobile; bp-- {
		if cols, ok := s[bp]; ok {
			return cols
		}
	}
	for bp := b + 1; bp <= XXL; bp++ {
		if cols, ok := s[bp]; ok {
			return cols
		}
	}
	return nil
}
