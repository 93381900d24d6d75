package transport

import (
	"encoding/json"
	"io"
	"net/http"

	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/logging"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// DecodeResponse decodes a JSON body into target and closes it. The status
// code is not checked; call CheckStatus first for endpoints without a JSON
// error envelope.
func DecodeResponse(resp *http.Response, target any) error {
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.WrapIO("read", "response body", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return pkgerrors.WrapParse("json", "response", err)
	}
	return nil
}

// CheckStatus returns an APIError and closes the body when resp is not 200.
func CheckStatus(resp *http.Response, service, method string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	defer closeBody(resp)
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return pkgerrors.NewAPIError(service, method, resp.StatusCode, string(body))
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logging.Debug().Err(err).Msg("Failed to close response body")
	}
}
