package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Resolution outcomes.
	ResAbsentType     Code = 1001
	ResAbsentMember   Code = 1002
	ResAssemblyFailed Code = 1003
	ResInvalidQuery   Code = 1004

	// Request file problems.
	ReqInvalid      Code = 2001
	ReqNoDestModule Code = 2002
)

var codeDescription = map[Code]string{
	UnknownCode:       "unknown error",
	ResAbsentType:     "type not found",
	ResAbsentMember:   "member not found",
	ResAssemblyFailed: "assembly could not be resolved",
	ResInvalidQuery:   "query rejected by the resolver",
	ReqInvalid:        "invalid request",
	ReqNoDestModule:   "destination module unavailable",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("REQ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
