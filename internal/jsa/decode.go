package jsa

import (
	"encoding/json"
	"fmt"
)

// editEnvelope is the wire form of an Edit: {"op": "...", ...}.
type editEnvelope struct {
	Op         string          `json:"op"`
	Lang       string          `json:"lang"`
	Field      string          `json:"field"`
	Slot       string          `json:"slot"`
	Factor     string          `json:"factor"`
	Collection string          `json:"collection"`
	Index      *int            `json:"index"`
	Value      json.RawMessage `json:"value"`
}

// DecodeEdit turns a JSON edit envelope into its typed operation.
func DecodeEdit(data []byte) (Edit, error) {
	var env editEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode edit: %w", err)
	}

	switch env.Op {
	case "title.set":
		lang, err := ParseLanguage(env.Lang)
		if err != nil {
			return nil, err
		}
		value, err := env.stringValue()
		if err != nil {
			return nil, err
		}
		return SetTitle{Lang: lang, Value: value}, nil
	case "metadata.set":
		value, err := env.stringValue()
		if err != nil {
			return nil, err
		}
		return SetMetadata{Field: MetadataField(env.Field), Value: value}, nil
	case "category.set":
		value, err := env.stringValue()
		if err != nil {
			return nil, err
		}
		return SetCategory{Value: value}, nil
	case "risk.set":
		var value int
		if err := json.Unmarshal(env.Value, &value); err != nil {
			return nil, fmt.Errorf("%w: value must be an integer", ErrInvalidRiskInput)
		}
		return SetRisk{Slot: RiskSlot(env.Slot), Factor: RiskFactor(env.Factor), Value: value}, nil
	case "collection.append":
		value, err := env.optionalString()
		if err != nil {
			return nil, err
		}
		return Append{Collection: Collection(env.Collection), Value: value}, nil
	case "collection.update":
		index, err := env.index()
		if err != nil {
			return nil, err
		}
		value, err := env.stringValue()
		if err != nil {
			return nil, err
		}
		return Update{Collection: Collection(env.Collection), Index: index, Field: ItemField(env.Field), Value: value}, nil
	case "collection.remove":
		index, err := env.index()
		if err != nil {
			return nil, err
		}
		return Remove{Collection: Collection(env.Collection), Index: index}, nil
	case "steps.renumber":
		return RenumberSteps{}, nil
	case "location.activate":
		index, err := env.index()
		if err != nil {
			return nil, err
		}
		return SetActiveLocation{Index: index}, nil
	default:
		return nil, fmt.Errorf("%w: op %q", ErrUnknownField, env.Op)
	}
}

func (e editEnvelope) stringValue() (string, error) {
	var value string
	if err := json.Unmarshal(e.Value, &value); err != nil {
		return "", fmt.Errorf("decode edit %s: value must be a string", e.Op)
	}
	return value, nil
}

func (e editEnvelope) optionalString() (string, error) {
	if len(e.Value) == 0 || string(e.Value) == "null" {
		return "", nil
	}
	return e.stringValue()
}

func (e editEnvelope) index() (int, error) {
	if e.Index == nil {
		return 0, fmt.Errorf("%w: index is required", ErrIndexOutOfRange)
	}
	return *e.Index, nil
}
