// Package standard provides contributors for common runtime objects such as
// the host machine, the current process and X.509 certificates.
package standard

import (
	"fmt"
	"reflect"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/group"
	"github.com/st-keller/inspection/registry"
)

// Register installs every standard level into r, plus a root level that
// names the Go type of the inspected value. Registering into the same
// registry again does nothing.
func Register(r *registry.Registry) error {
	if r.Has(reflect.TypeFor[*Host]()) {
		return nil
	}
	if err := registry.Describe(r, (*Host).PrepareInspection); err != nil {
		return err
	}
	if err := registry.Describe(r, (*Process).PrepareInspection); err != nil {
		return err
	}
	if err := registry.Describe(r, (*Certificate).PrepareInspection); err != nil {
		return err
	}
	if err := registry.Describe(r, (*Connectivity).PrepareInspection); err != nil {
		return err
	}
	if err := registry.Describe(r, (*RecentLogs).PrepareInspection); err != nil {
		return err
	}
	if err := registry.Describe(r, Text.PrepareInspection); err != nil {
		return err
	}
	if err := registry.Describe(r, func(s string, c *coordinator.Coordinator) { Text(s).PrepareInspection(c) }); err != nil {
		return err
	}
	return r.Root(describeType)
}

func describeType(target any, c *coordinator.Coordinator) {
	c.AppendStatic("type", "Type", "", attribute.String(fmt.Sprintf("%T", target)), group.General)
}
