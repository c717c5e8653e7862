package todolist

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// IndentWidth is the number of spaces per nesting level in Render output.
const IndentWidth = 4

// Render writes a pre-order listing of n. Each line carries the node's
// pre-order index; groups end with ":" and leaves with "X" (done) or "_".
//
//	0.ToDo List:
//	    1.buy milk _
//	    2.eggs X
func (n *Node) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	n.Walk(func(node *Node, depth, index int) bool {
		bw.WriteString(strings.Repeat(" ", depth*IndentWidth))
		bw.WriteString(strconv.Itoa(index))
		bw.WriteByte('.')
		bw.WriteString(node.Label)
		if node.Kind == Group {
			bw.WriteString(":\n")
			return true
		}
		if node.Done {
			bw.WriteString(" X\n")
		} else {
			bw.WriteString(" _\n")
		}
		return true
	})
	return bw.Flush()
}

func (n *Node) String() string {
	var sb strings.Builder
	_ = n.Render(&sb)
	return sb.String()
}
