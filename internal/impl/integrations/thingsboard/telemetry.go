package thingsboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/drujensen/datamodels/internal/domain/entities"
)

func telemetryPath(ref entities.EntityRef, kind string, scope entities.AttributeScope) string {
	return fmt.Sprintf("/api/plugins/telemetry/%s/%s/%s/%s", ref.EntityType, url.PathEscape(ref.ID), kind, scope)
}

// SaveAttributes posts every key in one request.
func (c *Client) SaveAttributes(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, attributes []entities.AttributeKV) error {
	body := make(map[string]any, len(attributes))
	for _, kv := range attributes {
		body[kv.Key] = kv.Value
	}
	return c.do(ctx, http.MethodPost, telemetryPath(ref, "attributes", scope), body, nil)
}

type timeseriesEntry struct {
	Ts     int64          `json:"ts"`
	Values map[string]any `json:"values"`
}

// SaveTimeseries groups points sharing a timestamp into one entry.
func (c *Client) SaveTimeseries(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, points []entities.TimeseriesPoint) error {
	byTs := make(map[int64]map[string]any)
	for _, p := range points {
		if byTs[p.Ts] == nil {
			byTs[p.Ts] = make(map[string]any)
		}
		byTs[p.Ts][p.Key] = p.Value
	}
	body := make([]timeseriesEntry, 0, len(byTs))
	for ts, values := range byTs {
		body = append(body, timeseriesEntry{Ts: ts, Values: values})
	}
	sort.Slice(body, func(i, j int) bool { return body[i].Ts < body[j].Ts })

	return c.do(ctx, http.MethodPost, telemetryPath(ref, "timeseries", scope), body, nil)
}

type attributeValue struct {
	Key          string `json:"key"`
	Value        any    `json:"value"`
	LastUpdateTs int64  `json:"lastUpdateTs"`
}

func (c *Client) GetAttributes(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, keys []string) ([]entities.AttributeKV, error) {
	path := telemetryPath(ref, "values/attributes", scope)
	if len(keys) > 0 {
		path += "?keys=" + url.QueryEscape(strings.Join(keys, ","))
	}

	var values []attributeValue
	if err := c.do(ctx, http.MethodGet, path, nil, &values); err != nil {
		return nil, err
	}
	kvs := make([]entities.AttributeKV, 0, len(values))
	for _, v := range values {
		kvs = append(kvs, entities.AttributeKV{Key: v.Key, Value: v.Value})
	}
	return kvs, nil
}
