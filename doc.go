// Package scrollwizardry drives scroll-linked scenes over a host surface.
//
// A [Controller] watches one scroll container of a [surface.Provider] and
// updates its [Scene]s once per frame. A scene covers a range of the
// container's scroll axis, starting where its trigger element meets the
// trigger hook line plus an offset and lasting its duration. As the
// container scrolls the scene moves through the states BEFORE, DURING and
// AFTER and fires events that handlers subscribe to by name.
//
// # Quick start
//
//	tree := surface.NewTree(800, 600)
//	// ... add nodes ...
//	ctrl, err := scrollwizardry.NewController(tree, scrollwizardry.DefaultControllerOptions())
//	if err != nil {
//		return err
//	}
//	scene := scrollwizardry.NewScene(scrollwizardry.SceneOptions{
//		TriggerElement: scrollwizardry.TriggerSelector("#panel"),
//		TriggerHook:    scrollwizardry.HookName("onLeave"),
//		Duration:       scrollwizardry.Pixels(300),
//	}).AddTo(ctrl)
//	scene.On("enter leave", func(e scrollwizardry.Event) {
//		fmt.Println(e.Type, e.State)
//	})
//
// The tree's clock only advances through [surface.Tree.Step]; the
// ebitenhost package steps it from an Ebitengine game loop and
// [surface.Tree.Frame] steps it in tests.
//
// # Events
//
// Handlers are registered with [Scene.On] under names of the form
// "event" or "event.namespace". Handlers of one event run in registration
// order, and each dispatch works on the handlers registered when it
// started. Built-in events are enter, leave, start, end, progress,
// update, change, shift, add, remove and destroy; any other name is a
// custom event fired with [Scene.Trigger].
//
// # Pinning
//
// [Scene.SetPin] fixes an element in the viewport while the scene is
// DURING. The element is wrapped in a spacer node that keeps its place in
// the flow and, with push followers enabled, grows by the scene duration so
// that following content waits for the pin to end.
//
// # Logging
//
// Scenes and controllers log through log/slog at their own level
// (LogSilent to LogDebug). Install a logger with [SetLogger].
//
// Sibling packages: manifest builds documents from YAML, trace records
// scene events as CBOR, ecs forwards events into a Donburi world and
// ebitenhost renders a tree with Ebitengine.
package scrollwizardry
