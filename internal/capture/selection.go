package capture

// Selection describes a source the Linux xdg-desktop-portal picker
// dialog resolved on the user's behalf (screencast session restore, or
// a fresh window/monitor/region pick). Geometry is the portal's own
// opaque description of the picked region, if any; it is not parsed by
// this service, only relayed to the caller that requested it.
type Selection struct {
	SourceType string
	SourceID   string
	Geometry   *string
}
