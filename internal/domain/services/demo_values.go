package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
)

const (
	// PlaceholderImage is a 1x1 transparent PNG.
	PlaceholderImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

	telemetryWindow   = 7 * 24 * time.Hour
	telemetryInterval = time.Hour
)

// PlaceholderJSON is written for JSON attributes.
func PlaceholderJSON() map[string]any {
	return map[string]any{"key": "value"}
}

// runCounters holds every counter of one generation run. A fresh value is
// created per run so names never leak between runs.
type runCounters struct {
	entities   map[entities.EntityType]int
	attributes int
}

func newRunCounters() *runCounters {
	return &runCounters{entities: make(map[entities.EntityType]int)}
}

// entityName returns "{prefix}{name} ({n})" with n counted per entity type.
func (c *runCounters) entityName(prefix string, t entities.EntityType, name string) (string, int) {
	c.entities[t]++
	n := c.entities[t]
	return fmt.Sprintf("%s%s (%d)", prefix, name, n), n
}

func (c *runCounters) attributeName() string {
	c.attributes++
	return fmt.Sprintf("Attribute name %d", c.attributes)
}

// demoValues synthesizes attribute and telemetry values for generated entities.
type demoValues struct {
	counters *runCounters
	rand     *rand.Rand
	now      time.Time
}

func (d *demoValues) attributeValue(field entities.ModelAdditionalField) any {
	if field.IsEnum && len(field.EnumOptions) > 0 {
		return field.EnumOptions[0]
	}
	switch field.Type {
	case entities.ValueInteger:
		return d.rand.Intn(10) + 1
	case entities.ValueDouble:
		return 1 + d.rand.Float64()*9
	case entities.ValueBoolean:
		return false
	case entities.ValueImage:
		return PlaceholderImage
	case entities.ValueJSON:
		return PlaceholderJSON()
	default:
		return d.counters.attributeName()
	}
}

func (d *demoValues) attributes(fields []entities.ModelAdditionalField) []entities.AttributeKV {
	kvs := make([]entities.AttributeKV, 0, len(fields))
	for _, field := range fields {
		kvs = append(kvs, entities.AttributeKV{Key: field.Name, Value: d.attributeValue(field)})
	}
	return kvs
}

// telemetry returns hourly readings for the trailing week, oldest first.
func (d *demoValues) telemetry(key string) []entities.TimeseriesPoint {
	count := int(telemetryWindow / telemetryInterval)
	points := make([]entities.TimeseriesPoint, 0, count)
	for i := count - 1; i >= 0; i-- {
		ts := d.now.Add(-time.Duration(i) * telemetryInterval)
		points = append(points, entities.TimeseriesPoint{
			Ts:    ts.UnixMilli(),
			Key:   key,
			Value: d.rand.Intn(100) + 1,
		})
	}
	return points
}
