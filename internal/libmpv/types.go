package libmpv

// StreamCBInfo matches the C struct layout of mpv_stream_cb_info. The open
// callback fills in the cookie and the function pointers; mpv reads them only
// when open reports success. CancelFn exists since client API 1.106 and may
// be left zero.
type StreamCBInfo struct {
	Cookie   uintptr
	ReadFn   uintptr
	SeekFn   uintptr
	SizeFn   uintptr
	CloseFn  uintptr
	CancelFn uintptr
}

// Event matches the C struct layout of mpv_event. Data points to an
// event-specific payload struct and is only valid until the next
// mpv_wait_event call on the same handle.
type Event struct {
	EventID       int32
	Error         int32
	ReplyUserdata uint64
	Data          uintptr
}

// EventProperty matches mpv_event_property. Data points to a value of the
// given format, e.g. a char* variable for FormatString.
type EventProperty struct {
	Name   uintptr
	Format int32
	_      [4]byte // padding
	Data   uintptr
}

// EventLogMessage matches mpv_event_log_message.
type EventLogMessage struct {
	Prefix   uintptr
	Level    uintptr
	Text     uintptr
	LogLevel int32
	_        [4]byte // padding
}

// EventStartFile matches mpv_event_start_file.
type EventStartFile struct {
	PlaylistEntryID int64
}

// EventEndFile matches mpv_event_end_file.
type EventEndFile struct {
	Reason                   int32
	Error                    int32
	PlaylistEntryID          int64
	PlaylistInsertID         int64
	PlaylistInsertNumEntries int32
	_                        [4]byte // padding
}

// EventClientMessage matches mpv_event_client_message. Args points to an
// array of NumArgs char* entries.
type EventClientMessage struct {
	NumArgs int32
	_       [4]byte // padding
	Args    uintptr
}
