package telegram

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"

	tele "gopkg.in/telebot.v4"

	kit "tgalert/internal/transport"
)

// telebot formats unclassified API failures as "telegram: <description> (<code>)".
var apiErrRx = regexp.MustCompile(`^telegram: (.*) \((\d+)\)$`)

// apiError builds *kit.APIError from the raw Bot API response returned by
// Bot.Raw next to its error. Payload is that body verbatim. Without a
// decodable error body it falls back to mapError.
func apiError(data []byte, err error) error {
	var resp struct {
		OK          bool   `json:"ok"`
		ErrorCode   int    `json:"error_code"`
		Description string `json:"description"`
		Parameters  struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if len(data) > 0 && json.Unmarshal(data, &resp) == nil && !resp.OK && resp.ErrorCode != 0 {
		return &kit.APIError{
			Code:        resp.ErrorCode,
			Description: resp.Description,
			Payload:     string(data),
			RetryAfter:  resp.Parameters.RetryAfter,
			Err:         err,
		}
	}
	return mapError(err)
}

// mapError converts telebot errors into *kit.APIError when the Bot API
// answered with a structured error. Transport failures are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return &kit.APIError{
			Code:        429,
			Description: describe(flood.Error()),
			Payload:     flood.Error(),
			RetryAfter:  flood.RetryAfter,
			Err:         err,
		}
	}

	var te *tele.Error
	if errors.As(err, &te) {
		desc := te.Description
		if desc == "" {
			desc = describe(te.Error())
		}
		return &kit.APIError{Code: te.Code, Description: desc, Payload: te.Error(), Err: err}
	}

	if m := apiErrRx.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[2])
		return &kit.APIError{Code: code, Description: m[1], Payload: err.Error(), Err: err}
	}
	return err
}

func describe(msg string) string {
	if m := apiErrRx.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return msg
}
