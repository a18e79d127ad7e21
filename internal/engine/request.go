package engine

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
	transport "github.com/GreyCorbel/ExoHelper/internal/http"
)

// commandBody is the wire envelope of one invocation request.
type commandBody struct {
	CmdletInput cmdletInput `json:"CmdletInput"`
}

type cmdletInput struct {
	CmdletName string                 `json:"CmdletName"`
	Parameters map[string]interface{} `json:"Parameters"`
}

// buildRequest assembles one wire request. Continuation requests go to the
// service-provided link verbatim; the field projection query is only attached
// to the first request because continuation links already carry their query.
// The client-request-id is freshly generated here so every wire request,
// including retries of the same logical page, is individually correlatable.
func (i *Invoker) buildRequest(target string, firstPage bool, cmdlet string, params map[string]interface{}, selectProps []string, pageSize int, token string) *transport.Request {
	req := &transport.Request{
		Method: http.MethodPost,
		URL:    target,
		Body: commandBody{
			CmdletInput: cmdletInput{
				CmdletName: cmdlet,
				Parameters: params,
			},
		},
		Headers: map[string]string{
			constants.HeaderCmdletName:        cmdlet,
			constants.HeaderPrefer:            fmt.Sprintf("odata.maxpagesize=%d", pageSize),
			constants.HeaderConnectionID:      i.conn.ID,
			constants.HeaderAnchorMailbox:     i.conn.AnchorMailbox,
			constants.HeaderClientApplication: i.conn.ClientApplication,
			constants.HeaderClientRequestID:   uuid.NewString(),
			"Authorization":                   "Bearer " + token,
		},
	}

	if firstPage && len(selectProps) > 0 {
		req.Query = url.Values{"$select": []string{strings.Join(selectProps, ",")}}
	}

	return req
}

// clampPageSize forces the requested page size into the service's documented
// bounds; non-positive values fall back to the default batch.
func clampPageSize(requested int) int {
	switch {
	case requested <= 0:
		return constants.DefaultPageSize
	case requested < constants.MinPageSize:
		return constants.MinPageSize
	case requested > constants.MaxPageSize:
		return constants.MaxPageSize
	default:
		return requested
	}
}
