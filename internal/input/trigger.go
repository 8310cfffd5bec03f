package input

import "context"

// StopTrigger returns a function that calls stop whenever hotkeyStr is
// pressed, until the returned cancel func is called or ctx ends
func StopTrigger(hotkeyStr string) func(ctx context.Context, stop func()) (func(), error) {
	return func(ctx context.Context, stop func()) (func(), error) {
		l := NewHotkeyListener(stop)
		if err := l.Start(ctx, hotkeyStr); err != nil {
			return nil, err
		}
		return l.Stop, nil
	}
}
