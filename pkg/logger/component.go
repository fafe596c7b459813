package logger

import (
	"fmt"
	"strings"
)

// ComponentLogger prefixes messages with a component name and renders
// trailing key/value pairs as k=v.
type ComponentLogger struct {
	component string
}

// WithComponent returns a logger scoped to component, backed by the default
// logger.
func WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{component: component}
}

func (c *ComponentLogger) Debug(msg string, keyvals ...interface{}) {
	Debug("%s", c.format(msg, keyvals))
}

func (c *ComponentLogger) Info(msg string, keyvals ...interface{}) {
	Info("%s", c.format(msg, keyvals))
}

func (c *ComponentLogger) Warn(msg string, keyvals ...interface{}) {
	Warn("%s", c.format(msg, keyvals))
}

func (c *ComponentLogger) Error(msg string, keyvals ...interface{}) {
	Error("%s", c.format(msg, keyvals))
}

func (c *ComponentLogger) format(msg string, keyvals []interface{}) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(c.component)
	b.WriteString("] ")
	b.WriteString(msg)

	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		var value interface{} = "(missing)"
		if i+1 < len(keyvals) {
			value = keyvals[i+1]
		}
		fmt.Fprintf(&b, " %s=%v", key, value)
	}
	return b.String()
}
