package cart

import (
	"bytes"
	"encoding/json"
)

// Decode parses stored cart bytes into the item sequence. Numbers are kept
// as json.Number so that a decode/encode round trip preserves the stored
// text exactly, including the number-vs-string distinction on quantity and
// price.
func Decode(data []byte) ([]Item, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var items []Item
	if err := dec.Decode(&items); err != nil {
		return nil, &DecodeError{Cause: err}
	}
	return items, nil
}

// Encode serializes the item sequence to the stored representation, a JSON
// array of item objects.
func Encode(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}
