package sdjwt

import (
	"fmt"

	"github.com/valyala/fastjson"
)

type resolver struct {
	arena    fastjson.Arena
	byDigest map[string]*Disclosure
	used     map[string]bool
	order    []string
}

func newResolver(disclosures []Disclosure) *resolver {
	r := &resolver{
		byDigest: make(map[string]*Disclosure, len(disclosures)),
		used:     make(map[string]bool, len(disclosures)),
	}
	for i := range disclosures {
		d := &disclosures[i]
		r.byDigest[d.Digest] = d
		r.order = append(r.order, d.Digest)
	}
	return r
}

func (r *resolver) resolve(v *fastjson.Value) (*fastjson.Value, error) {
	switch v.Type() {
	case fastjson.TypeObject:
		return r.resolveObject(v.GetObject())
	case fastjson.TypeArray:
		return r.resolveArray(v.GetArray())
	default:
		return v, nil
	}
}

func (r *resolver) resolveObject(obj *fastjson.Object) (*fastjson.Value, error) {
	result := r.arena.NewObject()
	var firstErr error
	obj.Visit(func(key []byte, v *fastjson.Value) {
		k := string(key)
		if firstErr != nil || k == sdKey || k == sdAlgKey {
			return
		}
		resolved, err := r.resolve(v)
		if err != nil {
			firstErr = err
			return
		}
		result.Set(k, resolved)
	})
	if firstErr != nil {
		return nil, firstErr
	}

	sd := obj.Get(sdKey)
	if sd == nil {
		return result, nil
	}
	digests, err := sd.Array()
	if err != nil {
		return nil, fmt.Errorf("_sd must be an array: %w", err)
	}
	for _, d := range digests {
		digest, err := d.StringBytes()
		if err != nil {
			return nil, fmt.Errorf("_sd entries must be strings: %w", err)
		}
		disc, err := r.take(string(digest))
		if err != nil {
			return nil, err
		}
		// decoy digests have no disclosure
		if disc == nil {
			continue
		}
		if disc.IsArrayEntry {
			return nil, fmt.Errorf("array element disclosure referenced from _sd")
		}
		if result.Get(disc.Name) != nil {
			return nil, fmt.Errorf("disclosed claim %s already exists", disc.Name)
		}
		resolved, err := r.resolve(disc.Value)
		if err != nil {
			return nil, err
		}
		result.Set(disc.Name, resolved)
	}
	return result, nil
}

func (r *resolver) resolveArray(items []*fastjson.Value) (*fastjson.Value, error) {
	result := r.arena.NewArray()
	n := 0
	for _, item := range items {
		if digest, ok := arrayDigest(item); ok {
			disc, err := r.take(digest)
			if err != nil {
				return nil, err
			}
			if disc == nil {
				continue
			}
			if !disc.IsArrayEntry {
				return nil, fmt.Errorf("object property disclosure referenced from array")
			}
			item = disc.Value
		}
		resolved, err := r.resolve(item)
		if err != nil {
			return nil, err
		}
		result.SetArrayItem(n, resolved)
		n++
	}
	return result, nil
}

// arrayDigest reports whether item is an {"...": digest} placeholder.
func arrayDigest(item *fastjson.Value) (string, bool) {
	obj, err := item.Object()
	if err != nil || obj.Len() != 1 {
		return "", false
	}
	digest := obj.Get("...")
	if digest == nil || digest.Type() != fastjson.TypeString {
		return "", false
	}
	return string(digest.GetStringBytes()), true
}

func (r *resolver) take(digest string) (*Disclosure, error) {
	if r.used[digest] {
		return nil, fmt.Errorf("digest %s referenced more than once", digest)
	}
	r.used[digest] = true
	return r.byDigest[digest], nil
}

func (r *resolver) unused() []string {
	var digests []string
	for _, d := range r.order {
		if !r.used[d] {
			digests = append(digests, r.byDigest[d].Raw)
		}
	}
	return digests
}
