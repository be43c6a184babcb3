package oscquery

// HostInfo is the HOST_INFO side-channel payload: the server's name,
// capability flags, and the OSC transport endpoint, returned from Start and
// served whenever the HTTP request selector is HOST_INFO.
type HostInfo struct {
	Name         string
	Extensions   HostInfoExtensions
	OSCIP        string
	OSCPort      int
	OSCTransport string
}

// HostInfoExtensions are the capability flags advertised under
// HOST_INFO.EXTENSIONS. The core always advertises all seven as true: every
// attribute the serializer can emit, it emits.
type HostInfoExtensions struct {
	Access      bool
	Value       bool
	Range       bool
	Description bool
	Tags        bool
	Critical    bool
	ClipMode    bool
}

func allExtensions() HostInfoExtensions {
	return HostInfoExtensions{
		Access:      true,
		Value:       true,
		Range:       true,
		Description: true,
		Tags:        true,
		Critical:    true,
		ClipMode:    true,
	}
}

func (h HostInfo) serialize() map[string]interface{} {
	return map[string]interface{}{
		"NAME": h.Name,
		"EXTENSIONS": map[string]interface{}{
			"ACCESS":      h.Extensions.Access,
			"VALUE":       h.Extensions.Value,
			"RANGE":       h.Extensions.Range,
			"DESCRIPTION": h.Extensions.Description,
			"TAGS":        h.Extensions.Tags,
			"CRITICAL":    h.Extensions.Critical,
			"CLIPMODE":    h.Extensions.ClipMode,
		},
		"OSC_IP":        h.OSCIP,
		"OSC_PORT":      h.OSCPort,
		"OSC_TRANSPORT": h.OSCTransport,
	}
}
