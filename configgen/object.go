package configgen

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that keeps key insertion order, so the generated
// config.json reads top to bottom like the spreadsheet.
type Object = orderedmap.OrderedMap[string, any]

func NewObject() *Object {
	return orderedmap.New[string, any](orderedmap.WithDisableHTMLEscape[string, any]())
}

func keys(o *Object) []string {
	out := make([]string, 0, o.Len())
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}
