package mpv

import "github.com/cromfel/go-mpv/internal/libmpv"

// Format identifies the data format of a property or option value.
type Format int32

const (
	FormatNone      = Format(libmpv.FormatNone)
	FormatString    = Format(libmpv.FormatString)
	FormatOSDString = Format(libmpv.FormatOSDString)
	FormatFlag      = Format(libmpv.FormatFlag)
	FormatInt64     = Format(libmpv.FormatInt64)
	FormatDouble    = Format(libmpv.FormatDouble)
)

func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatString:
		return "string"
	case FormatOSDString:
		return "osd-string"
	case FormatFlag:
		return "flag"
	case FormatInt64:
		return "int64"
	case FormatDouble:
		return "double"
	default:
		return "unknown"
	}
}
