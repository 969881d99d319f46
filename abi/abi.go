// Package abi reads Ethereum contract ABI JSON into the typed surface the
// binding emitter works from.
package abi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/teranos/subgraph/errors"
)

// Param is a named, typed event or function parameter.
type Param struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed"`
}

// Event is an event the contract emits.
type Event struct {
	Name      string  `json:"name"`
	Inputs    []Param `json:"inputs"`
	Anonymous bool    `json:"anonymous"`
}

// Function is a callable contract function.
type Function struct {
	Name            string  `json:"name"`
	Inputs          []Param `json:"inputs"`
	Outputs         []Param `json:"outputs"`
	Constant        bool    `json:"constant"`
	StateMutability string  `json:"stateMutability"`
}

// IsView reports whether calling the function cannot change state.
func (f Function) IsView() bool {
	return f.Constant || f.StateMutability == "view" || f.StateMutability == "pure"
}

// Surface is the typed description of one contract ABI.
type Surface struct {
	Events    []Event
	Functions []Function
}

type entry struct {
	Type            string  `json:"type"`
	Name            string  `json:"name"`
	Inputs          []Param `json:"inputs"`
	Outputs         []Param `json:"outputs"`
	Anonymous       bool    `json:"anonymous"`
	Constant        bool    `json:"constant"`
	StateMutability string  `json:"stateMutability"`
}

// Load reads and parses an ABI file.
func Load(path string) (*Surface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ABI %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse ABI %s", path)
	}
	return s, nil
}

// Parse accepts either a bare ABI array or an artifact object with an "abi" field.
// Entries keep their file order. Unnamed parameters are named paramN.
func Parse(data []byte) (*Surface, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty ABI")
	}

	var entries []entry
	if data[0] == '{' {
		var artifact struct {
			ABI []entry `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, errors.Wrap(err, "invalid ABI artifact")
		}
		if artifact.ABI == nil {
			return nil, errors.WithHint(errors.New("artifact has no abi field"),
				"point the manifest at the contract's ABI array or a build artifact containing \"abi\"")
		}
		entries = artifact.ABI
	} else if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "invalid ABI array")
	}

	s := &Surface{}
	for _, e := range entries {
		switch e.Type {
		case "event":
			s.Events = append(s.Events, Event{
				Name:      e.Name,
				Inputs:    nameParams(e.Inputs),
				Anonymous: e.Anonymous,
			})
		case "function", "":
			// entries without a type default to function
			s.Functions = append(s.Functions, Function{
				Name:            e.Name,
				Inputs:          nameParams(e.Inputs),
				Outputs:         nameParams(e.Outputs),
				Constant:        e.Constant,
				StateMutability: e.StateMutability,
			})
		}
	}
	return s, nil
}

func nameParams(params []Param) []Param {
	out := make([]Param, len(params))
	for i, p := range params {
		if p.Name == "" {
			p.Name = fmt.Sprintf("param%d", i)
		}
		out[i] = p
	}
	return out
}
