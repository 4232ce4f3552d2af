package container

import (
	"reflect"

	"github.com/sirupsen/logrus"
)

// InstanceCreatedEvent is published once per Singleton or Transient
// materialisation. Static instances never publish one.
type InstanceCreatedEvent struct {
	Instance any
	Lifetime Lifetime
	Name     string
	Type     reflect.Type
	Metadata map[string]any
	Flags    map[string]bool
}

// OnInstanceCreated subscribes fn to creation events. Handlers run
// synchronously on the resolving goroutine, in subscription order.
func (c *Container) OnInstanceCreated(fn func(InstanceCreatedEvent)) {
	if fn == nil {
		return
	}
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.handlers = append(c.handlers, fn)
}

func (c *Container) created(e InstanceCreatedEvent) {
	c.log.WithFields(logrus.Fields{
		"type":     typeName(e.Type),
		"name":     e.Name,
		"lifetime": e.Lifetime.String(),
	}).Debug("container: instance created")

	c.hmu.RLock()
	handlers := c.handlers
	c.hmu.RUnlock()
	for _, fn := range handlers {
		fn(e)
	}
}
