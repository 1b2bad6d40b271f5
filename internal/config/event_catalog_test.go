package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventCatalogDisplayName(t *testing.T) {
	holder := NewStaticEventCatalogHolder(EventCatalog{
		EventTypes: []EventType{
			{Code: "Tug Of War", Name: "Tug of War"},
			{Code: "relay_race"},
		},
	})

	catalog := holder.Get()
	assert.Equal(t, "Tug of War", catalog.DisplayName("tug-of-war"))
	assert.Equal(t, "Tug of War", catalog.DisplayName("Tug of War"))
	assert.Equal(t, "relay_race", catalog.DisplayName("relay_race"))
	assert.Equal(t, "dodgeball", catalog.DisplayName("dodgeball"))
}

func TestValidateEventCatalog(t *testing.T) {
	assert.Error(t, validateEventCatalog(EventCatalog{}))
	assert.Error(t, validateEventCatalog(EventCatalog{EventTypes: []EventType{{Code: "a"}, {Code: "A"}}}))
	assert.Error(t, validateEventCatalog(EventCatalog{EventTypes: []EventType{{Code: "  "}}}))
	assert.NoError(t, validateEventCatalog(DefaultEventCatalog()))
}
