package logo

import "time"

// BackendKind selects the external recorder that can be asked for logos.
type BackendKind string

const (
	BackendMirakurun BackendKind = "Mirakurun"
	BackendEDCB      BackendKind = "EDCB"
)

// DefaultBackendTimeout bounds every remote logo round trip.
const DefaultBackendTimeout = 3 * time.Second

// BackendConfig describes the active backend. It is passed by value on each
// resolution; an unknown or empty Kind disables the remote step.
type BackendConfig struct {
	Kind         BackendKind
	MirakurunURL string
	EDCBURL      string
}

// Endpoint returns the connection parameter of the active backend.
func (c BackendConfig) Endpoint() string {
	switch c.Kind {
	case BackendMirakurun:
		return c.MirakurunURL
	case BackendEDCB:
		return c.EDCBURL
	default:
		return ""
	}
}
