// Package surface defines the host primitives a scroll scene engine needs
// and provides [Tree], an in-memory host built from [Node] values.
//
// # Provider
//
// [Provider] is the contract between the engine and its host: element
// lookup, scroll positions, box geometry, inline and computed styles, tree
// mutation, scroll/resize/wheel notifications and frame scheduling. Elements
// are opaque [Element] handles.
//
// # Tree
//
// A [Tree] is rooted at a viewport node that doubles as the document. Nodes
// are laid out in block flow (or left to right with [FlowRow]) using a small
// subset of the CSS box model: width, height, min sizes, margins, padding,
// box sizing and the static, relative, absolute and fixed positioning
// schemes. Any node marked Scrollable is a scroll container.
//
//	tree := surface.NewTree(800, 600)
//	content := surface.NewNode("content", surface.Style{Height: surface.Px(3000)})
//	tree.Root().AddChild(content)
//	tree.SetScrollPos(tree.Root(), true, 400)
//
// Time is virtual. [Tree.Step] advances the clock, fires due timers and runs
// queued frame callbacks, so hosts (or tests) control exactly when frames
// happen. [Tree.InjectWheel] and [Script] feed synthetic input one event per
// step.
package surface
