package handler

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rentx/rentx-api/internal/application/authflow"
	"github.com/rentx/rentx-api/internal/pkg/id"
)

// FlowRegistry hosts live login flow instances keyed by flow id. Abandoned
// flows expire after the configured TTL; each request refreshes its flow's
// deadline, so only truly idle flows are dropped.
type FlowRegistry struct {
	cache   *gocache.Cache
	newFlow func(flowID string) *authflow.Controller
}

func NewFlowRegistry(ttl time.Duration, newFlow func(flowID string) *authflow.Controller) *FlowRegistry {
	return &FlowRegistry{
		cache:   gocache.New(ttl, ttl),
		newFlow: newFlow,
	}
}

// Create starts a fresh flow at EmailEntry and returns its id.
func (r *FlowRegistry) Create() (string, *authflow.Controller) {
	flowID := id.New()
	flow := r.newFlow(flowID)
	r.cache.Set(flowID, flow, gocache.DefaultExpiration)
	return flowID, flow
}

// Get returns the live flow for flowID, refreshing its TTL.
func (r *FlowRegistry) Get(flowID string) (*authflow.Controller, bool) {
	v, ok := r.cache.Get(flowID)
	if !ok {
		return nil, false
	}
	flow := v.(*authflow.Controller)
	r.cache.Set(flowID, flow, gocache.DefaultExpiration)
	return flow, true
}

// Drop removes a finished flow immediately instead of waiting out the TTL.
func (r *FlowRegistry) Drop(flowID string) {
	r.cache.Delete(flowID)
}
