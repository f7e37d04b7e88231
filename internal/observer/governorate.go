// Package observer holds the event observers registered on the order grid.
package observer

import (
	"context"

	"github.com/JonMunkholm/orderenhancer/internal/events"
	"github.com/JonMunkholm/orderenhancer/internal/grid"
	"github.com/JonMunkholm/orderenhancer/internal/logging"
)

// GovernorateFlag reports whether the governorate filter is enabled for a store.
type GovernorateFlag interface {
	IsGovernorateFilterEnabled(ctx context.Context, storeID *int) bool
}

// GovernorateFilter observes grid.EventLoadBefore. It is an extension point:
// when enabled it receives the collection but applies no filter.
type GovernorateFilter struct {
	flags GovernorateFlag
}

// NewGovernorateFilter returns the observer.
func NewGovernorateFilter(flags GovernorateFlag) *GovernorateFilter {
	return &GovernorateFilter{flags: flags}
}

// Register attaches the observer to m.
func (o *GovernorateFilter) Register(m *events.Manager) {
	m.Register(grid.EventLoadBefore, o)
}

// Execute implements events.Observer.
func (o *GovernorateFilter) Execute(ctx context.Context, e events.Event) {
	c, _ := e.Get("collection").(*grid.Collection)

	var storeID *int
	if c != nil {
		storeID = c.StoreID()
	}
	if !o.flags.IsGovernorateFilterEnabled(ctx, storeID) {
		return
	}

	logging.FromContext(ctx).Debug("governorate filter observed grid load", "has_collection", c != nil)
}
