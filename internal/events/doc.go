// Package events decouples services from the background task system.
//
// Services emit TaskRequestEvents without knowing which handlers will
// process them; the task runner registers a handler that turns events
// into persisted tasks. This keeps the service layer free of task
// dependencies and avoids circular imports.
//
// The primary components are:
// - TaskRequestEvent: Represents a request to create a background task
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
