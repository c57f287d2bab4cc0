// Package engine exposes the stable operation surface of the GitForge core:
// goal creation, event subscription, status lookup and cancellation. It
// composes the goal store, the event bus and the router, and owns the
// asynchronous dispatch of goals to their Git or agent backends.
package engine
