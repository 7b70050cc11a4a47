package ecs

import (
	sw "github.com/phanxgames/scrollwizardry"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SceneEvent is a scene lifecycle event delivered through the world.
type SceneEvent struct {
	Entity    donburi.Entity
	Label     string
	Kind      sw.EventKind
	Type      string
	Progress  float64
	State     sw.State
	Direction sw.ScrollDirection
}

// SceneEventType is the Donburi event type for scene events.
var SceneEventType = events.NewEventType[SceneEvent]()

// SceneState mirrors a scene on its entity. It is updated on every
// lifecycle event.
type SceneState struct {
	Scene     *sw.Scene
	Label     string
	Progress  float64
	State     sw.State
	Direction sw.ScrollDirection
}

// SceneData is the component holding a SceneState.
var SceneData = donburi.NewComponentType[SceneState]()

const forwardedEvents = "enter.ecs leave.ecs start.ecs end.ecs progress.ecs"

type binding struct {
	entity donburi.Entity
	ids    []sw.HandlerID
}

// Bridge forwards scene events into a Donburi world.
type Bridge struct {
	world  donburi.World
	scenes map[*sw.Scene]*binding
}

// NewBridge creates a Bridge publishing into world.
func NewBridge(world donburi.World) *Bridge {
	return &Bridge{world: world, scenes: make(map[*sw.Scene]*binding)}
}

// Attach creates an entity for s and starts forwarding its events. A scene
// attached before keeps its entity.
func (b *Bridge) Attach(s *sw.Scene, label string) donburi.Entity {
	if bd, ok := b.scenes[s]; ok {
		return bd.entity
	}
	entity := b.world.Create(SceneData)
	SceneData.SetValue(b.world.Entry(entity), SceneState{
		Scene:    s,
		Label:    label,
		Progress: s.Progress(),
		State:    s.State(),
	})
	bd := &binding{entity: entity}
	bd.ids = s.OnID(forwardedEvents, func(e sw.Event) { b.forward(bd.entity, e) })
	bd.ids = append(bd.ids, s.OnID("destroy.ecs", func(sw.Event) { b.Detach(s) })...)
	b.scenes[s] = bd
	return entity
}

// Detach stops forwarding the events of s and removes its entity.
func (b *Bridge) Detach(s *sw.Scene) {
	bd, ok := b.scenes[s]
	if !ok {
		return
	}
	delete(b.scenes, s)
	s.Off("*.ecs", bd.ids...)
	if b.world.Valid(bd.entity) {
		b.world.Remove(bd.entity)
	}
}

// Entity returns the entity of an attached scene.
func (b *Bridge) Entity(s *sw.Scene) (donburi.Entity, bool) {
	bd, ok := b.scenes[s]
	if !ok {
		var none donburi.Entity
		return none, false
	}
	return bd.entity, true
}

func (b *Bridge) forward(entity donburi.Entity, e sw.Event) {
	if !b.world.Valid(entity) {
		return
	}
	st := SceneData.Get(b.world.Entry(entity))
	st.Progress = e.Progress
	st.State = e.State
	st.Direction = e.ScrollDirection
	SceneEventType.Publish(b.world, SceneEvent{
		Entity:    entity,
		Label:     st.Label,
		Kind:      e.Kind,
		Type:      e.Type,
		Progress:  e.Progress,
		State:     e.State,
		Direction: e.ScrollDirection,
	})
}
