package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Backend resource names; they double as query-cache resources.
const (
	recursoCreditos     = "credits"
	recursoNotasCredito = "creditNotes"
	recursoFacturas     = "bills"
	recursoPersonas     = "person"
	recursoFacultades   = "faculty"
	recursoUsuarios     = "users"
	recursoDashboard    = "dashboard"
)

// decodeList accepts both a bare JSON array and a {"data": [...]} envelope.
func decodeList[T any](payload []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	var list []T
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("backend: decode list: %w", err)
		}
		return list, nil
	}
	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("backend: decode list: %w", err)
	}
	if envelope.Data == nil {
		return []T{}, nil
	}
	return envelope.Data, nil
}

// decodeOne accepts a bare object or a {"data": {...}} envelope.
func decodeOne[T any](payload []byte) (*T, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var envelope struct {
		Data *T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}
	var out T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("backend: decode object: %w", err)
	}
	return &out, nil
}

func idPath(base string, id int64) string {
	return base + strconv.FormatInt(id, 10)
}
