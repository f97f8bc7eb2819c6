package alert

import "log"

// Notifier fans event notifications out to subscribed hooks.
type Notifier struct {
	manager  *Manager
	executor *Executor
}

// NewNotifier creates a Notifier over the given manager and executor.
func NewNotifier(manager *Manager, executor *Executor) *Notifier {
	return &Notifier{
		manager:  manager,
		executor: executor,
	}
}

// Dispatch sends the notification to every hook subscribed to its event.
// Hook failures are logged, not returned; a misbehaving hook must not stall
// the pipeline.
func (n *Notifier) Dispatch(note *Notification) {
	for _, hook := range n.manager.ForEvent(note.Event) {
		response, err := n.executor.Execute(hook, note)
		if err != nil {
			log.Printf("Hook %s failed on %s: %v", hook.Manifest.Name, note.Event, err)
			continue
		}
		if !response.Success {
			log.Printf("Hook %s rejected %s: %s", hook.Manifest.Name, note.Event, response.Error)
		}
	}
}
