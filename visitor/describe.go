package visitor

import (
	"fmt"
	"strconv"

	"github.com/tsawler/pdfbrowse/core"
	"github.com/tsawler/pdfbrowse/walker"
)

// ContentsText is the line shown for a stream's contents node
const ContentsText = "<contents>"

// Describe returns the one-line text of a node: "name (dict)",
// "name (array)", "name (stream)", "name = value" or "<contents>",
// followed by " [id: N, gen: G]" when the node was reached through a
// reference.
func Describe(n walker.Node) string {
	name := n.Label.String()

	var s string
	if n.Contents != nil {
		s = ContentsText
	} else {
		switch obj := n.Object.(type) {
		case *core.Dict:
			s = name + " (dict)"
		case core.Array:
			s = name + " (array)"
		case *core.Stream:
			s = name + " (stream)"
		case core.Name:
			s = name + " = /" + string(obj)
		case core.String:
			s = name + " = " + strconv.Quote(core.DecodeText(obj))
		case core.Int, core.Real, core.Bool, core.Null, core.IndirectRef:
			s = name + " = " + obj.String()
		default:
			s = fmt.Sprintf("%s = %v", name, obj)
		}
	}

	if n.Origin != nil {
		s += fmt.Sprintf(" [id: %d, gen: %d]", n.Origin.Number, n.Origin.Generation)
	}
	return s
}
