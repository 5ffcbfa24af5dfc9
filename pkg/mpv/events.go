package mpv

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/cromfel/go-mpv/internal/libmpv"
)

// EventID identifies the kind of an engine event.
type EventID int32

const (
	EventNone             = EventID(libmpv.EventIDNone)
	EventShutdown         = EventID(libmpv.EventIDShutdown)
	EventLogMessage       = EventID(libmpv.EventIDLogMessage)
	EventGetPropertyReply = EventID(libmpv.EventIDGetPropertyReply)
	EventSetPropertyReply = EventID(libmpv.EventIDSetPropertyReply)
	EventCommandReply     = EventID(libmpv.EventIDCommandReply)
	EventStartFile        = EventID(libmpv.EventIDStartFile)
	EventEndFile          = EventID(libmpv.EventIDEndFile)
	EventFileLoaded       = EventID(libmpv.EventIDFileLoaded)
	EventClientMessage    = EventID(libmpv.EventIDClientMessage)
	EventVideoReconfig    = EventID(libmpv.EventIDVideoReconfig)
	EventAudioReconfig    = EventID(libmpv.EventIDAudioReconfig)
	EventSeek             = EventID(libmpv.EventIDSeek)
	EventPlaybackRestart  = EventID(libmpv.EventIDPlaybackRestart)
	EventPropertyChange   = EventID(libmpv.EventIDPropertyChange)
	EventQueueOverflow    = EventID(libmpv.EventIDQueueOverflow)
	EventHook             = EventID(libmpv.EventIDHook)
)

func (id EventID) String() string {
	switch id {
	case EventNone:
		return "none"
	case EventShutdown:
		return "shutdown"
	case EventLogMessage:
		return "log-message"
	case EventGetPropertyReply:
		return "get-property-reply"
	case EventSetPropertyReply:
		return "set-property-reply"
	case EventCommandReply:
		return "command-reply"
	case EventStartFile:
		return "start-file"
	case EventEndFile:
		return "end-file"
	case EventFileLoaded:
		return "file-loaded"
	case EventClientMessage:
		return "client-message"
	case EventVideoReconfig:
		return "video-reconfig"
	case EventAudioReconfig:
		return "audio-reconfig"
	case EventSeek:
		return "seek"
	case EventPlaybackRestart:
		return "playback-restart"
	case EventPropertyChange:
		return "property-change"
	case EventQueueOverflow:
		return "queue-overflow"
	case EventHook:
		return "hook"
	default:
		return fmt.Sprintf("event-%d", int32(id))
	}
}

// EndFileReason reports why playback of a file ended.
type EndFileReason int32

const (
	EndFileEOF      = EndFileReason(libmpv.EndFileEOF)
	EndFileStop     = EndFileReason(libmpv.EndFileStop)
	EndFileQuit     = EndFileReason(libmpv.EndFileQuit)
	EndFileError    = EndFileReason(libmpv.EndFileError)
	EndFileRedirect = EndFileReason(libmpv.EndFileRedirect)
)

func (r EndFileReason) String() string {
	switch r {
	case EndFileEOF:
		return "eof"
	case EndFileStop:
		return "stop"
	case EndFileQuit:
		return "quit"
	case EndFileError:
		return "error"
	case EndFileRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("reason-%d", int32(r))
	}
}

// LogMessage is the payload of an EventLogMessage event.
type LogMessage struct {
	Prefix string
	Level  string
	Text   string
}

// PropertyData is the payload of EventPropertyChange and
// EventGetPropertyReply events. Value is string, bool, int64, or float64
// depending on Format, and nil when the property is unavailable.
type PropertyData struct {
	Name   string
	Format Format
	Value  any
}

// StartFileData is the payload of an EventStartFile event.
type StartFileData struct {
	PlaylistEntryID int64
}

// EndFileData is the payload of an EventEndFile event. Err is the engine
// error that stopped playback when Reason is EndFileError.
type EndFileData struct {
	Reason          EndFileReason
	Err             error
	PlaylistEntryID int64
}

// Event is one engine event with its payload decoded into Go values. All
// payload memory is copied out of the engine before WaitEvent returns, so
// events may be retained and passed between goroutines freely.
type Event struct {
	ID            EventID
	Err           error
	ReplyUserdata uint64

	LogMessage    *LogMessage
	Property      *PropertyData
	StartFile     *StartFileData
	EndFile       *EndFileData
	ClientMessage []string
}

// WaitEvent blocks up to timeout seconds for the next engine event. A
// timeout of 0 polls; a negative timeout waits indefinitely. When nothing
// happened an EventNone event is returned. Only one goroutine may wait on a
// client at a time.
func (c *Client) WaitEvent(timeout float64) *Event {
	if c.alive() != nil {
		return &Event{ID: EventNone}
	}
	raw := libmpv.WaitEvent(c.handle, timeout)
	if raw == 0 {
		return &Event{ID: EventNone}
	}
	return decodeEvent((*libmpv.Event)(unsafe.Pointer(raw)))
}

// ObserveProperty requests change events for a property. Changes arrive as
// EventPropertyChange events carrying replyUserdata.
func (c *Client) ObserveProperty(replyUserdata uint64, name string, format Format) error {
	if err := c.alive(); err != nil {
		return err
	}
	cname := libmpv.CString(name)
	status := libmpv.ObserveProperty(c.handle, replyUserdata,
		uintptr(unsafe.Pointer(&cname[0])), int32(format))
	runtime.KeepAlive(cname)
	if status < 0 {
		return fmt.Errorf("mpv: observe %q: %w", name, errorFor(status))
	}
	return nil
}

// UnobserveProperty removes all observers registered with replyUserdata.
func (c *Client) UnobserveProperty(replyUserdata uint64) error {
	if err := c.alive(); err != nil {
		return err
	}
	return errorFor(libmpv.UnobserveProperty(c.handle, replyUserdata))
}

// RequestLogMessages enables EventLogMessage delivery for messages at
// minLevel ("no", "fatal", "error", "warn", "info", "v", "debug", "trace")
// or above.
func (c *Client) RequestLogMessages(minLevel string) error {
	if err := c.alive(); err != nil {
		return err
	}
	clevel := libmpv.CString(minLevel)
	status := libmpv.RequestLogMessages(c.handle, uintptr(unsafe.Pointer(&clevel[0])))
	runtime.KeepAlive(clevel)
	return errorFor(status)
}

// decodeEvent copies one raw engine event into an owned Event value. The raw
// struct and everything it points into belong to the engine and become
// invalid on the next wait, so nothing here may alias engine memory.
func decodeEvent(raw *libmpv.Event) *Event {
	ev := &Event{
		ID:            EventID(raw.EventID),
		Err:           errorFor(raw.Error),
		ReplyUserdata: raw.ReplyUserdata,
	}
	if raw.Data == 0 {
		return ev
	}

	switch ev.ID {
	case EventLogMessage:
		msg := (*libmpv.EventLogMessage)(unsafe.Pointer(raw.Data))
		ev.LogMessage = &LogMessage{
			Prefix: libmpv.GoString(msg.Prefix),
			Level:  libmpv.GoString(msg.Level),
			Text:   libmpv.GoString(msg.Text),
		}
	case EventPropertyChange, EventGetPropertyReply:
		prop := (*libmpv.EventProperty)(unsafe.Pointer(raw.Data))
		ev.Property = &PropertyData{
			Name:   libmpv.GoString(prop.Name),
			Format: Format(prop.Format),
			Value:  decodePropertyValue(prop.Format, prop.Data),
		}
	case EventStartFile:
		start := (*libmpv.EventStartFile)(unsafe.Pointer(raw.Data))
		ev.StartFile = &StartFileData{PlaylistEntryID: start.PlaylistEntryID}
	case EventEndFile:
		end := (*libmpv.EventEndFile)(unsafe.Pointer(raw.Data))
		ev.EndFile = &EndFileData{
			Reason:          EndFileReason(end.Reason),
			Err:             errorFor(end.Error),
			PlaylistEntryID: end.PlaylistEntryID,
		}
	case EventClientMessage:
		msg := (*libmpv.EventClientMessage)(unsafe.Pointer(raw.Data))
		ev.ClientMessage = decodeStringArray(msg.Args, int(msg.NumArgs))
	}
	return ev
}

func decodePropertyValue(format int32, data uintptr) any {
	if data == 0 {
		return nil
	}
	switch format {
	case libmpv.FormatString, libmpv.FormatOSDString:
		return libmpv.GoString(*(*uintptr)(unsafe.Pointer(data)))
	case libmpv.FormatFlag:
		return *(*int32)(unsafe.Pointer(data)) != 0
	case libmpv.FormatInt64:
		return *(*int64)(unsafe.Pointer(data))
	case libmpv.FormatDouble:
		return *(*float64)(unsafe.Pointer(data))
	default:
		return nil
	}
}

func decodeStringArray(base uintptr, count int) []string {
	if base == 0 || count <= 0 {
		return nil
	}
	out := make([]string, 0, count)
	ptrSize := unsafe.Sizeof(uintptr(0))
	for i := 0; i < count; i++ {
		p := *(*uintptr)(unsafe.Pointer(base + uintptr(i)*ptrSize))
		out = append(out, libmpv.GoString(p))
	}
	return out
}
