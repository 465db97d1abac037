package rating

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/types"
)

// document is the on-disk layout of the ratings file.
type document struct {
	Ratings     orderedRatings       `json:"ratings"`
	History     []types.HistoryEntry `json:"history"`
	LastUpdated time.Time            `json:"last_updated"`
}

type ratingPair struct {
	Agent  model.AgentID
	Rating float64
}

// orderedRatings encodes as a JSON object whose key order is the agents'
// insertion order. A later duplicate key overwrites the value in place.
type orderedRatings []ratingPair

func (o orderedRatings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(p.Agent))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Rating)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *orderedRatings) UnmarshalJSON(data []byte) error {
	*o = (*o)[:0]
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("ratings: expected object, got %v", tok)
	}

	index := make(map[model.AgentID]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("ratings: expected key, got %v", tok)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("ratings[%s]: %w", key, err)
		}
		id := model.AgentID(key)
		if i, seen := index[id]; seen {
			(*o)[i].Rating = v
			continue
		}
		index[id] = len(*o)
		*o = append(*o, ratingPair{Agent: id, Rating: v})
	}
	_, err = dec.Token()
	return err
}
