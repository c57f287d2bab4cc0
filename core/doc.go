// Package core defines the shared data contract of the GitForge engine:
// goals and their status machine, task descriptors, versioned system events
// with their compatibility rule, route decisions and the backend capability
// interfaces consumed by the engine. It has no dependencies on other
// gitforge packages so every layer can import it freely.
package core
