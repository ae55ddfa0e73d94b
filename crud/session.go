package crud

import (
	"log/slog"
	"net/http"
	"net/url"
)

// SessionName is the name of the session remembering the summary state.
const SessionName = "saint"

// ParamReset drops the remembered summary state.
const ParamReset = "reset"

func summaryKey(name string) string {
	return "summary:" + name
}

// summaryParams returns the parameters of a summary request. A request
// without parameters gets the page, order, subset and filters of the
// previous one; any other request replaces them.
func (h *Handlers) summaryParams(w http.ResponseWriter, r *http.Request) url.Values {
	params := r.URL.Query()
	if h.sessions == nil {
		return params
	}
	sess, err := h.sessions.Get(r, SessionName)
	if err != nil {
		// A new session is returned along with the decoding error.
		h.log.WarnContext(r.Context(), "crud session", slog.Any("error", err))
	}
	key := summaryKey(h.ctrl.Name())
	switch {
	case params.Has(ParamReset):
		delete(sess.Values, key)
		params.Del(ParamReset)
	case len(params) == 0:
		if s, ok := sess.Values[key].(string); ok {
			if saved, err := url.ParseQuery(s); err == nil {
				return saved
			}
		}
		return params
	default:
		sess.Values[key] = params.Encode()
	}
	if err := sess.Save(r, w); err != nil {
		h.log.WarnContext(r.Context(), "crud session save", slog.Any("error", err))
	}
	return params
}
