// Package bus provides in-process fan-out of SystemEvents to an arbitrary
// number of subscribers. Each subscription owns an independent bounded
// queue, so a slow or abandoned consumer can never stall publication to the
// others; the overflow behavior (drop oldest vs. disconnect) is an explicit
// configuration choice. Fan-out of a single event is atomic across
// subscribers, which gives every subscriber the same relative event order.
package bus
