package service

import (
	"strings"

	"github.com/londondev77/thermostat-boost/internal/host"
)

const switchDomainPrefix = "switch."

// SchedulerSwitchesFor returns the scheduler switch entities whose tags
// match the thermostat name (case-insensitive substring, as the scheduler
// integration tags its switches). Entities with unknown/unavailable live
// state are excluded.
func SchedulerSwitchesFor(states host.StateQuery, thermostatName string) []string {
	nameLower := strings.ToLower(thermostatName)
	var matched []string

	for _, entityID := range states.EntityIDs() {
		if !strings.HasPrefix(entityID, switchDomainPrefix) {
			continue
		}
		st, ok := states.Get(entityID)
		if !ok || !st.Usable() {
			continue
		}
		if matchesTag(st.Attributes["tags"], nameLower) {
			matched = append(matched, entityID)
		}
	}
	return matched
}

// matchesTag accepts a single tag string or a list of tags.
func matchesTag(tags any, nameLower string) bool {
	switch v := tags.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), nameLower)
	case []string:
		for _, tag := range v {
			if strings.Contains(strings.ToLower(tag), nameLower) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if tag, ok := item.(string); ok && strings.Contains(strings.ToLower(tag), nameLower) {
				return true
			}
		}
	}
	return false
}
