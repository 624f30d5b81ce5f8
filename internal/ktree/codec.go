package ktree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/ktree/vector"
)

// Serialize writes t in pre-order DFS, one whitespace-separated line
// per node: "childrenCount leavesBelow v0 v1 ... v{d-1}\n". A leaf has
// childrenCount == 0.
func (t *Tree) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	root := t.root.Load()
	if root != nil {
		if err := serializeNode(bw, root); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func serializeNode(w *bufio.Writer, n *Node) error {
	childrenCount := 0
	if !n.IsLeaf() {
		childrenCount = n.ChildrenCount()
	}

	var sb strings.Builder
	sb.WriteString(strconv.Itoa(childrenCount))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatInt(n.leavesBelow.Load(), 10))
	for _, f := range n.centroid {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	sb.WriteByte('\n')

	if _, err := w.WriteString(sb.String()); err != nil {
		return err
	}

	for i := 0; i < childrenCount; i++ {
		child := n.children[i].Load()
		if child == nil {
			continue
		}
		if err := serializeNode(w, child); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize reconstructs a Tree from a stream written by Serialize.
// cfg.Dim is the expected vector dimensionality; if it is <= 0, it is
// inferred from the first line's field count (fieldCount - 2).
func Deserialize(r io.Reader, alloc Allocator, cfg Config) (*Tree, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	dec := &decoder{sc: sc, alloc: alloc, maxChildren: cfg.MaxChildren, dim: cfg.Dim}

	if !sc.Scan() {
		return New(alloc, cfg)
	}
	firstLine := sc.Text()
	dec.pending = &firstLine

	root, err := dec.readNode()
	if err != nil {
		return nil, err
	}

	if cfg.Dim <= 0 {
		cfg.Dim = dec.dim
	}
	tree, err := New(alloc, cfg)
	if err != nil {
		return nil, err
	}
	tree.root.Store(root)
	return tree, nil
}

type decoder struct {
	sc          *bufio.Scanner
	alloc       Allocator
	maxChildren int
	dim         int
	line        int
	pending     *string
}

func (d *decoder) nextLine() (string, bool) {
	if d.pending != nil {
		line := *d.pending
		d.pending = nil
		d.line++
		return line, true
	}
	if !d.sc.Scan() {
		return "", false
	}
	d.line++
	return d.sc.Text(), true
}

func (d *decoder) readNode() (*Node, error) {
	line, ok := d.nextLine()
	if !ok {
		// The missing line is the one after the last line read.
		return nil, &ErrParse{Line: d.line + 1, cause: io.ErrUnexpectedEOF}
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, &ErrParse{Line: d.line, cause: fmt.Errorf("expected at least 2 fields, got %d", len(fields))}
	}

	childrenCount, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, &ErrParse{Line: d.line, cause: err}
	}
	leavesBelow, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ErrParse{Line: d.line, cause: err}
	}

	vecFields := fields[2:]
	if d.dim <= 0 {
		d.dim = len(vecFields)
	}
	if len(vecFields) != d.dim {
		return nil, &ErrParse{Line: d.line, cause: fmt.Errorf("expected %d vector fields, got %d", d.dim, len(vecFields))}
	}

	centroid := vector.New(d.dim)
	for i, s := range vecFields {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, &ErrParse{Line: d.line, cause: err}
		}
		centroid[i] = float32(v)
	}

	node, err := d.alloc.AllocNode()
	if err != nil {
		return nil, err
	}

	if childrenCount == 0 {
		initLeaf(node, centroid, d.maxChildren)
		node.leavesBelow.Store(leavesBelow)
		return node, nil
	}

	childrenAreLeaves := false
	initInternal(node, d.maxChildren, d.dim, false)
	node.centroid.Assign(centroid)
	node.childrenCount.Store(int32(childrenCount))
	node.leavesBelow.Store(leavesBelow)

	for i := 0; i < childrenCount; i++ {
		child, err := d.readNode()
		if err != nil {
			return nil, err
		}
		if i == 0 {
			childrenAreLeaves = child.IsLeaf()
			node.childrenAreLeaves = childrenAreLeaves
		}
		node.children[i].Store(child)
	}

	return node, nil
}
