package supabase

import "fmt"

type defLogger struct{}

func (l defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SUPABASE "+newline(format), args...)
}

func (l defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SUPABASE "+newline(format), args...)
}

func (l defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SUPABASE "+newline(format), args...)
}

func (l defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SUPABASE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}
