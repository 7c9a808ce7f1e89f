// recover.go provides the Recover helper for panic capture in HTTP handlers,
// goroutines, and other host code.

package faultline

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Recover captures a panic, processes it through the client as a critical
// unhandled event, and returns the recovered value. It does NOT re-panic.
//
// Use in defer:
//
//	func handler(ctx context.Context) {
//	    defer faultline.Recover(ctx, client)
//	    // code that might panic
//	}
//
// Or to capture the recovered value:
//
//	func handler(ctx context.Context) (err error) {
//	    defer func() {
//	        if r := faultline.Recover(ctx, client); r != nil {
//	            err = fmt.Errorf("panic: %v", r)
//	        }
//	    }()
//	    // code that might panic
//	}
func Recover(ctx context.Context, client *Client) any {
	r := recover()
	if r == nil {
		return nil
	}

	client.Capture(ctx, ExceptionSnapshot{
		Kind:       KindPanic,
		DevMessage: formatRecovered(r),
		Severity:   SeverityCritical,
		Reportable: true,
		StackTrace: string(debug.Stack()),
	}, false)

	return r
}

// formatRecovered formats a recovered panic value as a string.
func formatRecovered(recovered any) string {
	if recovered == nil {
		return "<nil>"
	}
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", recovered)
}
