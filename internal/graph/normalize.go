package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// UnrecognizedPayloadError indicates a graph payload that matches neither
// supported format. Callers surface it and render nothing; no partial state
// is produced.
type UnrecognizedPayloadError struct {
	Err error
}

func (e *UnrecognizedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unrecognized graph payload: %v", e.Err)
	}
	return "unrecognized graph payload"
}

func (e *UnrecognizedPayloadError) Unwrap() error { return e.Err }

// objectSchema constrains the {nodes, edges} payload form before decoding.
// Field defaulting happens after validation, so only structure is enforced.
const objectSchemaJSON = `{
	"type": "object",
	"required": ["nodes", "edges"],
	"properties": {
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {"id": {"type": "string"}}
			}
		},
		"edges": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`

var (
	objectSchemaOnce sync.Once
	objectSchema     *jsonschema.Schema
	objectSchemaErr  error
)

func compiledObjectSchema() (*jsonschema.Schema, error) {
	objectSchemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(objectSchemaJSON), &def); err != nil {
			objectSchemaErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://graph-payload.json", def); err != nil {
			objectSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		objectSchema, objectSchemaErr = c.Compile("schema://graph-payload.json")
	})
	return objectSchema, objectSchemaErr
}

// tripleEntry is one record of the flat legacy history format.
type tripleEntry struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Relation    string `json:"relation"`
	Highlighted bool   `json:"highlighted"`
}

// rawNode accepts the loosely-shaped node objects the server emits.
type rawNode struct {
	ID                 string `json:"id"`
	Label              string `json:"label"`
	Level              int    `json:"level"`
	Value              int    `json:"value"`
	MasteryScore       int    `json:"mastery_score"`
	ConsecutiveCorrect int    `json:"consecutive_correct"`
	Mastered           bool   `json:"mastered"`
	Highlighted        bool   `json:"highlighted"`
	ContentSnippet     string `json:"content_snippet"`
}

// rawEdge accepts both from/to and from_node/to_node spellings.
type rawEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	FromNode string `json:"from_node"`
	ToNode   string `json:"to_node"`
	Label    string `json:"label"`
}

// Normalize converts either supported graph payload shape into the internal
// node/edge model:
//
//   - a flat array of {source, target, relation, highlighted} triples, from
//     which nodes are derived by endpoint union, or
//   - an explicit {nodes, edges} object.
//
// Absent fields default (label from id, value 5, scores 0). Any other shape
// yields *UnrecognizedPayloadError.
func Normalize(raw json.RawMessage) ([]Node, []Edge, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil, &UnrecognizedPayloadError{Err: fmt.Errorf("empty payload")}
	}

	switch trimmed[0] {
	case '[':
		return normalizeTriples(trimmed)
	case '{':
		return normalizeObject(trimmed)
	default:
		return nil, nil, &UnrecognizedPayloadError{Err: fmt.Errorf("payload is neither array nor object")}
	}
}

func normalizeTriples(raw []byte) ([]Node, []Edge, error) {
	var triples []tripleEntry
	if err := json.Unmarshal(raw, &triples); err != nil {
		return nil, nil, &UnrecognizedPayloadError{Err: err}
	}

	byID := make(map[string]int)
	var nodes []Node
	var edges []Edge

	// Endpoint union, preserving first-seen order. A highlighted triple marks
	// both endpoints mastered, upgrading endpoints seen earlier unhighlighted.
	touch := func(id string, highlighted bool) {
		if id == "" {
			return
		}
		if i, ok := byID[id]; ok {
			if highlighted {
				nodes[i].Mastered = true
				nodes[i].Highlighted = true
			}
			return
		}
		byID[id] = len(nodes)
		nodes = append(nodes, Node{
			ID:          id,
			Label:       id,
			Value:       DefaultNodeValue,
			Mastered:    highlighted,
			Highlighted: highlighted,
		})
	}

	for _, t := range triples {
		touch(t.Source, t.Highlighted)
		touch(t.Target, t.Highlighted)
		if t.Source != "" && t.Target != "" {
			edges = append(edges, Edge{From: t.Source, To: t.Target, Label: t.Relation})
		}
	}

	return nodes, edges, nil
}

func normalizeObject(raw []byte) ([]Node, []Edge, error) {
	schema, err := compiledObjectSchema()
	if err != nil {
		return nil, nil, fmt.Errorf("graph payload schema: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, &UnrecognizedPayloadError{Err: err}
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, nil, &UnrecognizedPayloadError{Err: err}
	}

	var payload struct {
		Nodes []rawNode `json:"nodes"`
		Edges []rawEdge `json:"edges"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, &UnrecognizedPayloadError{Err: err}
	}

	nodes := make([]Node, 0, len(payload.Nodes))
	for _, rn := range payload.Nodes {
		n := Node{
			ID:                 rn.ID,
			Label:              rn.Label,
			Level:              rn.Level,
			Value:              rn.Value,
			MasteryScore:       rn.MasteryScore,
			ConsecutiveCorrect: rn.ConsecutiveCorrect,
			Mastered:           rn.Mastered || rn.Highlighted,
			Highlighted:        rn.Highlighted || rn.Mastered,
			ContentSnippet:     rn.ContentSnippet,
		}
		if n.Label == "" {
			n.Label = n.ID
		}
		if n.Value == 0 {
			n.Value = DefaultNodeValue
		}
		nodes = append(nodes, n)
	}

	edges := make([]Edge, 0, len(payload.Edges))
	for _, re := range payload.Edges {
		e := Edge{From: re.From, To: re.To, Label: re.Label}
		if e.From == "" {
			e.From = re.FromNode
		}
		if e.To == "" {
			e.To = re.ToNode
		}
		edges = append(edges, e)
	}

	return nodes, edges, nil
}
