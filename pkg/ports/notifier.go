package ports

// Notifier delivers user-facing messages. Fire-and-forget: implementations
// must swallow their own failures, and the engine never checks delivery.
type Notifier interface {
	NotifyUser(message string)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(message string)

func (f NotifierFunc) NotifyUser(message string) { f(message) }
