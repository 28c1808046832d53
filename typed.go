package cache

import api "github.com/krisalay/ephemeral-cache/api"

/*
GetAs reads key and asserts its value to T.

Storage is type-erased: the cache accepts any value under any key, so keeping
one type per key is the caller's job. An absent key and a value of another
type both return the zero T and false.
*/
func GetAs[T any](c api.Cache, key string) (T, bool) {
	var zero T

	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}

	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
