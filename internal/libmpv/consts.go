package libmpv

// APIVersionMajor is the client API major version these bindings are written
// against. mpv breaks ABI only on major bumps, so anything with the same
// major is usable.
const APIVersionMajor = 2

// Error codes returned by the C API. Zero is success, everything below is a
// specific failure. Values are part of the ABI and must not be renumbered.
const (
	ErrorSuccess             int32 = 0
	ErrorEventQueueFull      int32 = -1
	ErrorNomem               int32 = -2
	ErrorUninitialized       int32 = -3
	ErrorInvalidParameter    int32 = -4
	ErrorOptionNotFound      int32 = -5
	ErrorOptionFormat        int32 = -6
	ErrorOption              int32 = -7
	ErrorPropertyNotFound    int32 = -8
	ErrorPropertyFormat      int32 = -9
	ErrorPropertyUnavailable int32 = -10
	ErrorProperty            int32 = -11
	ErrorCommand             int32 = -12
	ErrorLoadingFailed       int32 = -13
	ErrorAOInitFailed        int32 = -14
	ErrorVOInitFailed        int32 = -15
	ErrorNothingToPlay       int32 = -16
	ErrorUnknownFormat       int32 = -17
	ErrorUnsupported         int32 = -18
	ErrorNotImplemented      int32 = -19
	ErrorGeneric             int32 = -20
)

// Data formats used by the property and option interfaces.
const (
	FormatNone      int32 = 0
	FormatString    int32 = 1
	FormatOSDString int32 = 2
	FormatFlag      int32 = 3
	FormatInt64     int32 = 4
	FormatDouble    int32 = 5
	FormatNode      int32 = 6
	FormatNodeArray int32 = 7
	FormatNodeMap   int32 = 8
	FormatByteArray int32 = 9
)

// Event IDs delivered by mpv_wait_event. Gaps are IDs that were deprecated
// and removed from the API.
const (
	EventIDNone             int32 = 0
	EventIDShutdown         int32 = 1
	EventIDLogMessage       int32 = 2
	EventIDGetPropertyReply int32 = 3
	EventIDSetPropertyReply int32 = 4
	EventIDCommandReply     int32 = 5
	EventIDStartFile        int32 = 6
	EventIDEndFile          int32 = 7
	EventIDFileLoaded       int32 = 8
	EventIDClientMessage    int32 = 16
	EventIDVideoReconfig    int32 = 17
	EventIDAudioReconfig    int32 = 18
	EventIDSeek             int32 = 20
	EventIDPlaybackRestart  int32 = 21
	EventIDPropertyChange   int32 = 22
	EventIDQueueOverflow    int32 = 24
	EventIDHook             int32 = 25
)

// Reasons reported with an end-file event. Value 1 is unused in the C API.
const (
	EndFileEOF      int32 = 0
	EndFileStop     int32 = 2
	EndFileQuit     int32 = 3
	EndFileError    int32 = 4
	EndFileRedirect int32 = 5
)

// Numeric log levels reported with log-message events.
const (
	LogLevelNone  int32 = 0
	LogLevelFatal int32 = 10
	LogLevelError int32 = 20
	LogLevelWarn  int32 = 30
	LogLevelInfo  int32 = 40
	LogLevelV     int32 = 50
	LogLevelDebug int32 = 60
	LogLevelTrace int32 = 70
)
