package telegram

import kit "tgalert/internal/transport"

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// inlineRow lays buttons out as one inline keyboard row.
// Callback data is sent verbatim, without telebot's unique-button prefix.
func inlineRow(buttons []kit.Button) inlineKeyboard {
	row := make([]inlineButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, inlineButton{Text: b.Text, CallbackData: b.Data})
	}
	return inlineKeyboard{InlineKeyboard: [][]inlineButton{row}}
}
