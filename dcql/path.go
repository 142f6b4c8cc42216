package dcql

import (
	"fmt"

	"github.com/valyala/fastjson"
)

func (c *Credential) findJSONClaimValue(claim *ClaimQuery) (ClaimValue, bool, error) {
	if len(claim.Path) == 0 {
		return nil, false, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if claim.Path[0].Type() != fastjson.TypeString {
		return nil, false, fmt.Errorf("%w: first component must be a string, got %s", ErrInvalidPath, claim.Path[0].Type())
	}
	name := string(claim.Path[0].GetStringBytes())

	var current *fastjson.Value
	for _, cc := range c.claims {
		jc := cc.(JSONClaim)
		if jc.Name == name {
			current = jc.Value.JSON
			break
		}
	}
	if current == nil {
		return nil, false, nil
	}

	// Projections over arrays allocate new values here; the arena must
	// outlive the returned value, which the GC takes care of.
	arena := &fastjson.Arena{}
	for i, component := range claim.Path[1:] {
		next, ok, err := selectComponent(arena, current, component)
		if err != nil {
			return nil, false, fmt.Errorf("path %s component %d: %w", claim.PathString(), i+1, err)
		}
		if !ok {
			return nil, false, nil
		}
		current = next
	}
	return JSONClaimValue{JSON: current}, true, nil
}

// selectComponent applies one path component to current. ok is false when
// the selected element does not exist.
func selectComponent(arena *fastjson.Arena, current, component *fastjson.Value) (*fastjson.Value, bool, error) {
	switch component.Type() {
	case fastjson.TypeString:
		key := string(component.GetStringBytes())
		switch current.Type() {
		case fastjson.TypeArray:
			return projectKey(arena, current, key)
		case fastjson.TypeObject:
			v := current.GetObject().Get(key)
			return v, v != nil, nil
		default:
			return nil, false, fmt.Errorf("%w: can only select %q from an object or an array of objects, got %s", ErrInvalidPath, key, current.Type())
		}

	case fastjson.TypeNumber:
		idx, err := component.Int()
		if err != nil || idx < 0 {
			return nil, false, fmt.Errorf("%w: array index must be a non-negative integer, got %s", ErrInvalidPath, component)
		}
		items, err := current.Array()
		if err != nil {
			return nil, false, fmt.Errorf("%w: can only index into an array, got %s", ErrInvalidPath, current.Type())
		}
		if idx >= len(items) {
			return nil, false, nil
		}
		return items[idx], true, nil

	case fastjson.TypeNull:
		if current.Type() != fastjson.TypeArray {
			return nil, false, fmt.Errorf("%w: null selects all elements of an array, got %s", ErrInvalidPath, current.Type())
		}
		return current, true, nil

	default:
		return nil, false, fmt.Errorf("%w: unexpected path component %s", ErrInvalidPath, component)
	}
}

// projectKey selects key from every element of the array current and
// returns the selected values as a new array in element order.
func projectKey(arena *fastjson.Arena, current *fastjson.Value, key string) (*fastjson.Value, bool, error) {
	items, _ := current.Array()
	projected := arena.NewArray()
	for i, item := range items {
		obj, err := item.Object()
		if err != nil {
			return nil, false, fmt.Errorf("%w: array element %d is %s, not an object", ErrInvalidPath, i, item.Type())
		}
		v := obj.Get(key)
		if v == nil {
			return nil, false, nil
		}
		projected.SetArrayItem(i, v)
	}
	return projected, true, nil
}
