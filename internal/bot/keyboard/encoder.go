package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// CallbackDataSeparator splits the action prefix from its payload.
	CallbackDataSeparator = ":"
	// CallbackDataLimitBytes is the Telegram callback data size limit.
	CallbackDataLimitBytes = 64
)

// EncodeCallback joins an action prefix and payload into callback data.
func EncodeCallback(action, payload string) (string, error) {
	data := action
	if payload != "" {
		data = action + CallbackDataSeparator + payload
	}

	if len(data) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(data))
	}

	return data, nil
}

// DecodeCallback splits callback data into the action prefix and payload.
func DecodeCallback(callbackData string) (action, payload string, err error) {
	callbackData = strings.TrimPrefix(callbackData, "\f")
	if callbackData == "" {
		return "", "", errors.New("callback data is empty")
	}

	idx := strings.Index(callbackData, CallbackDataSeparator)
	if idx == -1 {
		return callbackData, "", nil
	}

	return callbackData[:idx], callbackData[idx+len(CallbackDataSeparator):], nil
}
