// Package appstate implements the App state machine (component G): the
// single owner of panels, routes, dialogs, find/tree results, and the
// status line, driving the Job Manager and the two runtime command queues.
// Grounded on the teacher's main.go application struct (which likewise
// bundles panels, a dialog stack, and a jobs.Manager handle behind one
// owner) generalized to the route-stack/dialog-state shape spec §3/§4.G
// describes.
package appstate

// Route is one screen on the navigation stack. The bottom of the stack is
// always FileManager.
type Route int

const (
	RouteFileManager Route = iota
	RouteDialog
	RouteViewer
	RouteJobs
	RouteFindResults
	RouteTree
	RouteHotlist
	RouteHelp
	RouteMenu
	RouteSkin
)
