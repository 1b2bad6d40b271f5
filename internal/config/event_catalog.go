package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gosimple/slug"
	"github.com/spf13/viper"
)

// EventType describes one competition category players are entered into.
type EventType struct {
	Code      string `mapstructure:"code"`
	Name      string `mapstructure:"name"`
	SquadSize int    `mapstructure:"squadSize"`
}

type EventCatalog struct {
	EventTypes []EventType `mapstructure:"eventTypes"`
}

func DefaultEventCatalog() EventCatalog {
	return EventCatalog{
		EventTypes: []EventType{
			{Code: "beach-volleyball", Name: "Beach Volleyball", SquadSize: 6},
			{Code: "tug-of-war", Name: "Tug of War", SquadSize: 8},
			{Code: "corn-toss", Name: "Corn Toss", SquadSize: 2},
			{Code: "bucket-brigade", Name: "Bucket Brigade", SquadSize: 6},
			{Code: "relay-race", Name: "Relay Race", SquadSize: 4},
		},
	}
}

// DisplayName returns the configured label for an event type code. Unknown
// codes fall back to the code itself.
func (c EventCatalog) DisplayName(code string) string {
	normalized := slug.Make(code)
	for _, et := range c.EventTypes {
		if et.Code == normalized {
			return et.Name
		}
	}
	return code
}

type EventCatalogHolder struct {
	current atomic.Value // holds EventCatalog
}

// NewStaticEventCatalogHolder returns a holder that never reloads.
func NewStaticEventCatalogHolder(cfg EventCatalog) *EventCatalogHolder {
	holder := &EventCatalogHolder{}
	holder.current.Store(normalizeEventCatalog(cfg))
	return holder
}

func NewEventCatalogHolder() (*EventCatalogHolder, error) {
	v := viper.New()

	v.SetConfigName("sportsfest")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/sportsfest")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SPORTSFEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		return NewStaticEventCatalogHolder(DefaultEventCatalog()), nil
	}

	var cfg EventCatalog
	if err := v.UnmarshalKey("catalog", &cfg); err != nil {
		return nil, err
	}
	if err := validateEventCatalog(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticEventCatalogHolder(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated EventCatalog
		if err := v.UnmarshalKey("catalog", &updated); err != nil {
			log.Printf("[event-catalog] reload failed: %v", err)
			return
		}
		if err := validateEventCatalog(updated); err != nil {
			log.Printf("[event-catalog] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(normalizeEventCatalog(updated))
		log.Printf("[event-catalog] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *EventCatalogHolder) Get() EventCatalog {
	return h.current.Load().(EventCatalog)
}

func normalizeEventCatalog(cfg EventCatalog) EventCatalog {
	out := EventCatalog{EventTypes: make([]EventType, 0, len(cfg.EventTypes))}
	for _, et := range cfg.EventTypes {
		et.Code = slug.Make(et.Code)
		if strings.TrimSpace(et.Name) == "" {
			et.Name = et.Code
		}
		out.EventTypes = append(out.EventTypes, et)
	}
	return out
}

func validateEventCatalog(cfg EventCatalog) error {
	if len(cfg.EventTypes) == 0 {
		return errors.New("catalog.eventTypes cannot be empty")
	}
	seen := make(map[string]struct{}, len(cfg.EventTypes))
	for _, et := range cfg.EventTypes {
		code := slug.Make(et.Code)
		if code == "" {
			return errors.New("catalog.eventTypes code is required")
		}
		if _, ok := seen[code]; ok {
			return fmt.Errorf("catalog.eventTypes duplicate code %q", code)
		}
		seen[code] = struct{}{}
	}
	return nil
}
