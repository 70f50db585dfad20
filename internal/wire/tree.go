package wire

import "github.com/zmcp/odata-vdm/internal/constants"

// RemoveEmptyArrays deletes every empty array member of obj, descending into
// nested objects and into objects held by arrays.
func RemoveEmptyArrays(obj Object) {
	for key, value := range obj {
		switch v := value.(type) {
		case Array:
			if len(v) == 0 {
				delete(obj, key)
				continue
			}
			for _, item := range v {
				if child, ok := item.(Object); ok {
					RemoveEmptyArrays(child)
				}
			}
		case Object:
			RemoveEmptyArrays(v)
		}
	}
}

// RemoveKeys deletes the named members from obj and from every object nested
// below it.
func RemoveKeys(obj Object, keys ...string) {
	Walk(obj, func(o Object) {
		for _, k := range keys {
			delete(o, k)
		}
	})
}

// RemoveNulls deletes null members from obj and its nested objects.
func RemoveNulls(obj Object) {
	Walk(obj, func(o Object) {
		for k, v := range o {
			if v == nil {
				delete(o, k)
			}
		}
	})
}

// Walk calls fn for obj and then for every object below it, depth first.
func Walk(obj Object, fn func(Object)) {
	fn(obj)
	for _, value := range obj {
		walkValue(value, fn)
	}
}

func walkValue(value any, fn func(Object)) {
	switch v := value.(type) {
	case Object:
		Walk(v, fn)
	case Array:
		for _, item := range v {
			walkValue(item, fn)
		}
	}
}

// Project copies the named members of obj into a new object. Names missing
// from obj are written as null.
func Project(obj Object, keys []string) Object {
	out := make(Object, len(keys))
	for _, k := range keys {
		out[k] = obj[k]
	}
	return out
}

// Results returns the items of a collection node: a bare array or an object
// wrapping the array in a "results" member. ok is false for anything else.
func Results(v any) (Array, bool) {
	switch n := v.(type) {
	case Array:
		return n, true
	case Object:
		if results, ok := n[constants.V2Results].(Array); ok {
			return results, true
		}
	}
	return nil, false
}
