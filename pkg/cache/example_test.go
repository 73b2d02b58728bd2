package cache_test

import (
	"fmt"
	"strings"

	"github.com/olivekit/oliveapi/pkg/cache"
)

func ExampleKey() {
	// Keys combine a namespace with a stable URL fingerprint, so the same
	// logical request always maps to the same entry.
	a := cache.Key("User", "https://api.olive.example/users/7")
	b := cache.Key("User", "https://api.olive.example/users/7")

	fmt.Println(strings.HasPrefix(a, "User/"))
	fmt.Println(len(a))
	fmt.Println(a == b)
	// Output:
	// true
	// 21
	// true
}

func ExampleHash() {
	// Hash is a full content digest used to detect changed response bodies.
	body := []byte(`[{"ID":"1"}]`)
	changed := []byte(`[{"ID":"1"},{"ID":"2"}]`)

	fmt.Println(len(cache.Hash(body)))
	fmt.Println(cache.Hash(body) == cache.Hash(body))
	fmt.Println(cache.Hash(body) == cache.Hash(changed))
	// Output:
	// 64
	// true
	// false
}
