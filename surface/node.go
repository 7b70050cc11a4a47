package surface

import "slices"

// nodeIDCounter is a plain counter; surfaces are single-threaded.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the element type of Tree. A single flat struct is used for every
// node; containers, scroll panes and leaf boxes differ only in their style.
type Node struct {
	// Identity
	ID      uint32
	Name    string
	Classes []string

	// Hierarchy
	Parent   *Node
	children []*Node

	// Style is the authored (inline) style.
	style Style

	// Scrollable marks a node as a scroll container: its children are
	// offset by its scroll position and clipped to its box.
	Scrollable bool
	scrollX    float64
	scrollY    float64

	// Fill is the debug fill color used by renderers.
	Fill Color

	// Metadata
	UserData any
	attrs    map[string]bool
	data     map[string]any

	// Computed by layout.
	box layoutBox

	tree     *Tree // set on the root only
	disposed bool
}

// NewNode creates a node with the given name and inline style.
func NewNode(name string, style Style) *Node {
	return &Node{
		ID:    nextNodeID(),
		Name:  name,
		style: style,
		Fill:  Color{1, 1, 1, 1},
	}
}

// ElementName implements Element.
func (n *Node) ElementName() string { return n.Name }

// Style returns the node's inline style.
func (n *Node) Style() Style { return n.style }

// SetStyle replaces the node's inline style.
func (n *Node) SetStyle(s Style) {
	n.style = s
	n.markDirty()
}

// HasClass reports whether class is among the node's classes.
func (n *Node) HasClass(class string) bool {
	return slices.Contains(n.Classes, class)
}

// AddClass adds class to the node if not already present.
func (n *Node) AddClass(class string) {
	if class != "" && !n.HasClass(class) {
		n.Classes = append(n.Classes, class)
	}
}

// ScrollOffset returns the node's scroll position along both axes.
func (n *Node) ScrollOffset() (x, y float64) { return n.scrollX, n.scrollY }

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	n.AddChildAt(child, len(n.children)-boolInt(child != nil && child.Parent == n))
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if child == nil {
		panic("surface: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("surface: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	if index < 0 || index > len(n.children) {
		panic("surface: child index out of range")
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.markDirty()
}

// InsertBefore inserts child directly before ref. A nil ref appends.
// Panics if ref is not a child of this node.
func (n *Node) InsertBefore(child, ref *Node) {
	if ref == nil {
		n.AddChild(child)
		return
	}
	if ref.Parent != n {
		panic("surface: reference node is not a child of this node")
	}
	if child == ref {
		return
	}
	if child != nil && isAncestor(child, n) {
		panic("surface: adding child would create a cycle")
	}
	if child != nil && child.Parent != nil {
		child.Parent.removeChildByPtr(child)
		child.Parent = nil
	}
	n.AddChildAt(child, n.IndexOf(ref))
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("surface: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	n.markDirty()
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// IndexOf returns the index of child among n's children, or -1.
func (n *Node) IndexOf(child *Node) int {
	return slices.Index(n.children, child)
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.UserData = nil
	n.attrs = nil
	n.data = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			n.markDirty()
			return
		}
	}
}

// root returns the topmost ancestor of n.
func (n *Node) root() *Node {
	r := n
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// markDirty flags the owning tree's layout for recomputation.
func (n *Node) markDirty() {
	if t := n.root().tree; t != nil {
		t.layoutDirty = true
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
