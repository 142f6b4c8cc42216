package dcql

import "strings"

const indentStep = 2

type prettyPrinter struct {
	sb     strings.Builder
	indent int
}

func (pp *prettyPrinter) line(s string) {
	pp.sb.WriteString(strings.Repeat(" ", pp.indent))
	pp.sb.WriteString(s)
	pp.sb.WriteByte('\n')
}

func (pp *prettyPrinter) pushIndent() {
	pp.indent += indentStep
}

func (pp *prettyPrinter) popIndent() {
	pp.indent -= indentStep
	if pp.indent < 0 {
		panic("dcql: unbalanced indentation")
	}
}

func (pp *prettyPrinter) String() string {
	return pp.sb.String()
}
