package logger

import "sync"

var (
	namedMu sync.RWMutex
	named   = make(map[string]*Logger)
)

// Register stores a named logger, replacing the one Get would derive.
func Register(name string, l *Logger) {
	namedMu.Lock()
	defer namedMu.Unlock()
	named[name] = l
}

// Get retrieves a named logger. If the name is not registered it returns the
// global logger tagged with the name as component.
func Get(name string) *Logger {
	namedMu.RLock()
	l, ok := named[name]
	namedMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}
