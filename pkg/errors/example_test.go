package errors_test

import (
	"fmt"

	"github.com/olivekit/oliveapi/pkg/errors"
)

func ExampleNew() {
	err := errors.New(errors.ErrCodeNotFound, "listing %d does not exist", 42)

	fmt.Println(err)
	fmt.Println(errors.GetCode(err))
	fmt.Println(errors.UserMessage(err))
	// Output:
	// NOT_FOUND: listing 42 does not exist
	// NOT_FOUND
	// listing 42 does not exist
}

func ExampleWrap() {
	cause := fmt.Errorf("connection refused")
	err := errors.Wrap(errors.ErrCodeOffline, cause, "POST /listings")

	fmt.Println(err)
	fmt.Println(errors.Is(err, errors.ErrCodeOffline))
	// Output:
	// NETWORK_UNAVAILABLE: POST /listings: connection refused
	// true
}
