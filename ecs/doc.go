// Package ecs bridges scrollwizardry scenes into a [Donburi] world.
//
// [NewBridge] gives every attached scene an entity carrying a [SceneState]
// component that follows the scene's progress, and publishes each lifecycle
// event as a [SceneEvent]. Subscribe to [SceneEventType] in your ECS systems
// to receive them.
//
// Usage:
//
//	bridge := ecs.NewBridge(world)
//	bridge.Attach(scene, "intro")
//	...
//	ecs.SceneEventType.ProcessEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
