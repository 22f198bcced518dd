// Package posixlog is the ambient structured-logging facade shared by the
// rest of this module. It wraps github.com/joeycumines/logiface, using
// github.com/joeycumines/stumpy as the default JSON writer backend — the
// same pairing the teacher codebase's own go.mod declares.
//
// Every package that can fail in an interesting way (mux, framer, siglatch,
// throttle) accepts an optional *posixlog.Logger and tags entries with one
// of the Category constants below, mirroring the category field the
// teacher's own event-loop logger uses (timer, promise, microtask, poll,
// shutdown) but for this module's domain.
package posixlog

// Category groups log entries by subsystem, matching the "Category" field
// of the teacher event loop's LogEntry but scoped to posixcore's
// components.
type Category string

const (
	CategoryMux       Category = "mux"
	CategoryFramer    Category = "framer"
	CategorySiglatch  Category = "siglatch"
	CategoryThrottle  Category = "throttle"
	CategoryShaper    Category = "shaper"
	CategoryDebounce  Category = "debounce"
	CategoryEventloop Category = "eventloop"
)
