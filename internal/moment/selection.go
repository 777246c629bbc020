package moment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const selectionFields = 5

// Selection is a moment encoded as "video_id|start|end|thumbnail_url|label",
// the form clients keep in their cart.
type Selection string

// Encode builds the composite selection string for m.
func Encode(m Moment) Selection {
	return Selection(strings.Join([]string{
		m.VideoID,
		formatSeconds(m.Start),
		formatSeconds(m.End),
		m.Thumbnail,
		m.Label,
	}, "|"))
}

// Input splits the selection into a raw Input.
func (s Selection) Input() (Input, error) {
	parts := strings.Split(string(s), "|")
	if len(parts) != selectionFields {
		return Input{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedSelection, selectionFields, len(parts))
	}
	return Input{
		VideoID:   parts[0],
		Start:     parts[1],
		End:       parts[2],
		Thumbnail: parts[3],
		Label:     parts[4],
	}, nil
}

// Resolve decodes selections into inputs, rejecting malformed strings.
func Resolve(selections []Selection) (inputs []Input, rejected []Selection) {
	for _, s := range selections {
		in, err := s.Input()
		if err != nil {
			rejected = append(rejected, s)
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, rejected
}

// ParseSelectionsJSON decodes a JSON array of selection strings.
func ParseSelectionsJSON(data []byte) ([]Selection, error) {
	var selections []Selection
	if err := json.Unmarshal(data, &selections); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	return selections, nil
}

// ParseInputsJSON decodes a JSON array of raw moment inputs.
func ParseInputsJSON(data []byte) ([]Input, error) {
	var inputs []Input
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	return inputs, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
