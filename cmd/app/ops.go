package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

type listQuery struct {
	Type      string `json:"type,omitempty"`
	ParishID  *uint  `json:"parish_id,omitempty"`
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

func (q listQuery) values() url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.ParishID != nil {
		v.Set("parish", uintToString(*q.ParishID))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v
}

type writeResult struct {
	Success bool `json:"success"`
	ID      uint `json:"id"`
}

func actorParams(cfg cliConfig) map[string]any {
	return map[string]any{"actor_id": cfg.ActorID, "actor_parish_id": cfg.ActorParishID}
}

func doRecordsList(ctx context.Context, cfg cliConfig, q listQuery, out any) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "records.list", q, out)
	}
	path := "/api/records"
	if encoded := q.values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	return newAPIClient(cfg).request(ctx, http.MethodGet, path, nil, out)
}

func doRecordsGet(ctx context.Context, cfg cliConfig, id uint, out any) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "records.get", map[string]any{"id": id}, out)
	}
	return newAPIClient(cfg).request(ctx, http.MethodGet, "/api/records/"+uintToString(id), nil, out)
}

func doRecordsCreate(ctx context.Context, cfg cliConfig, payload json.RawMessage, out any) error {
	if cfg.Transport == "uds" {
		params := actorParams(cfg)
		params["record"] = payload
		return newRPCClient(cfg.Socket).call(ctx, "records.create", params, out)
	}
	return newAPIClient(cfg).request(ctx, http.MethodPost, "/api/records", payload, out)
}

func doRecordsUpdate(ctx context.Context, cfg cliConfig, id uint, payload json.RawMessage, out any) error {
	if cfg.Transport == "uds" {
		params := actorParams(cfg)
		params["id"] = id
		params["record"] = payload
		return newRPCClient(cfg.Socket).call(ctx, "records.update", params, out)
	}
	return newAPIClient(cfg).request(ctx, http.MethodPatch, "/api/records/"+uintToString(id), payload, out)
}

func doRecordsDelete(ctx context.Context, cfg cliConfig, id uint) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, "records.delete", map[string]any{"id": id}, nil)
	}
	return newAPIClient(cfg).request(ctx, http.MethodDelete, "/api/records/"+uintToString(id), nil, nil)
}
