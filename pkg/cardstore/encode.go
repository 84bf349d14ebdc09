package cardstore

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DefaultIndent is the indentation width of the persisted card table.
const DefaultIndent = 2

// Encode renders t in its canonical on-disk form: cards sorted by name,
// blocks sorted by name, one block per line.
//
//	{
//	  "card_00": {
//	    "block_00": [222, 173, 190, 239, 0, ...],
//	    ...
//	  }
//	}
func Encode(t Table, indent int) []byte {
	if len(t) == 0 {
		return []byte("{}")
	}
	if indent <= 0 {
		indent = DefaultIndent
	}
	pad := strings.Repeat(" ", indent)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	cards := sortedKeys(t)
	for ci, card := range cards {
		buf.WriteString(pad)
		writeKey(&buf, card)
		blocks := t[card]
		if len(blocks) == 0 {
			buf.WriteString("{}")
		} else {
			buf.WriteString("{\n")
			names := sortedKeys(blocks)
			for bi, name := range names {
				buf.WriteString(pad)
				buf.WriteString(pad)
				writeKey(&buf, name)
				buf.WriteByte('[')
				for i, v := range blocks[name] {
					if i > 0 {
						buf.WriteString(", ")
					}
					buf.WriteString(strconv.Itoa(int(v)))
				}
				buf.WriteByte(']')
				if bi < len(names)-1 {
					buf.WriteByte(',')
				}
				buf.WriteByte('\n')
			}
			buf.WriteString(pad)
			buf.WriteByte('}')
		}
		if ci < len(cards)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func writeKey(buf *bytes.Buffer, key string) {
	quoted, _ := json.Marshal(key)
	buf.Write(quoted)
	buf.WriteString(": ")
}

// Decode parses a card table from its JSON form.
func Decode(data []byte) (Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return t, nil
}
