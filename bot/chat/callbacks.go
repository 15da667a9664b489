package chat

import (
	"strconv"
	"strings"
)

// Action is a decoded callback kind. Callback payloads are parsed once
// at the router boundary; nothing deeper in the call stack matches raw
// strings.
type Action string

const (
	ActionSelectCity      Action = "select_city"
	ActionSelectPosition  Action = "select_position"
	ActionSelectInstitut  Action = "select_institution"
	ActionSkipInstitution Action = "skip_institution"
	ActionRequestPosition Action = "request_position"
	ActionApproveRequest  Action = "approve_request"
	ActionRejectRequest   Action = "reject_request"
	ActionRateTicket      Action = "rate_ticket"
	ActionCancelLogin     Action = "cancel_login"
	ActionBack            Action = "back"
	ActionUnknown         Action = "unknown"
)

// Callback is the typed form of a callback_data payload.
type Callback struct {
	Action Action
	ID     string // catalog entry, request or ticket id
	Rating int    // only for ActionRateTicket
}

// Callback payload builders. The wire format is underscore-delimited
// and mirrors what the admin/inline keyboards encode.
func CityCallback(id string) string            { return "city_" + id }
func PositionCallback(id string) string        { return "position_" + id }
func InstitutionCallback(id string) string     { return "institution_" + id }
func ApprovePositionCallback(id string) string { return "approve_position_" + id }
func RejectPositionCallback(id string) string  { return "reject_position_" + id }
func RateCallback(ticketID string, rating int) string {
	return "rate_" + ticketID + "_" + strconv.Itoa(rating)
}

const (
	SkipInstitutionCallback = "skip_institution"
	RequestPositionCallback = "request_position"
	CancelLoginCallback     = "cancel_login"
	BackCallback            = "back"
)

// ParseCallback decodes a raw callback_data string. Prefixes are
// matched longest-first so "reject_position_<id>" never parses as a
// plain position selection. Unknown payloads decode to ActionUnknown
// and are acknowledged as a no-op by the caller, since chat clients may
// resend stale callbacks.
func ParseCallback(data string) Callback {
	switch data {
	case SkipInstitutionCallback:
		return Callback{Action: ActionSkipInstitution}
	case RequestPositionCallback:
		return Callback{Action: ActionRequestPosition}
	case CancelLoginCallback:
		return Callback{Action: ActionCancelLogin}
	case BackCallback:
		return Callback{Action: ActionBack}
	}

	switch {
	case strings.HasPrefix(data, "approve_position_"):
		return Callback{Action: ActionApproveRequest, ID: strings.TrimPrefix(data, "approve_position_")}
	case strings.HasPrefix(data, "reject_position_"):
		return Callback{Action: ActionRejectRequest, ID: strings.TrimPrefix(data, "reject_position_")}
	case strings.HasPrefix(data, "rate_"):
		return parseRate(data)
	case strings.HasPrefix(data, "city_"):
		return Callback{Action: ActionSelectCity, ID: strings.TrimPrefix(data, "city_")}
	case strings.HasPrefix(data, "institution_"):
		return Callback{Action: ActionSelectInstitut, ID: strings.TrimPrefix(data, "institution_")}
	case strings.HasPrefix(data, "position_"):
		return Callback{Action: ActionSelectPosition, ID: strings.TrimPrefix(data, "position_")}
	}

	return Callback{Action: ActionUnknown}
}

// parseRate decodes "rate_<ticketId>_<rating>". The rating is the last
// underscore-delimited token so ticket ids may themselves contain
// underscores.
func parseRate(data string) Callback {
	rest := strings.TrimPrefix(data, "rate_")
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 {
		return Callback{Action: ActionUnknown}
	}
	rating, err := strconv.Atoi(rest[idx+1:])
	if err != nil || rating < 1 || rating > 5 {
		return Callback{Action: ActionUnknown}
	}
	return Callback{Action: ActionRateTicket, ID: rest[:idx], Rating: rating}
}
